package ibl_test

import (
	"errors"
	"iblbake/ibl"
	"testing"
)

func TestMipCount(t *testing.T) {
	for exp := 1; exp <= 14; exp++ {
		edge := 1 << exp
		if is := ibl.MipCount(edge); is != exp+1 {
			t.Errorf("mip count of %d should be %d but is %d\n", edge, exp+1, is)
		}

		s, err := ibl.NewMipSchedule(edge)
		if err != nil {
			t.Fatal(err)
		}
		if is := s.Resolution(s.Count - 1); is != 1 {
			t.Errorf("last level of %d should have size 1 but has %d\n", edge, is)
		}
		if is := s.Resolution(0); is != edge {
			t.Errorf("first level of %d should have size %d but has %d\n", edge, edge, is)
		}
	}

	if is := ibl.MipCount(1); is != 1 {
		t.Errorf("mip count of 1 should be 1 but is %d\n", is)
	}
	if is := ibl.MipCount(0); is != 0 {
		t.Errorf("mip count of 0 should be 0 but is %d\n", is)
	}
}

func TestRoughnessSchedule(t *testing.T) {
	for _, edge := range []int{2, 4, 256, 1024} {
		s, err := ibl.NewMipSchedule(edge)
		if err != nil {
			t.Fatal(err)
		}

		first, err := s.Roughness(0)
		if err != nil {
			t.Fatal(err)
		}
		if first != 0.0 {
			t.Errorf("roughness of the first level of %d should be 0 but is %v\n", edge, first)
		}

		last, err := s.Roughness(s.Count - 1)
		if err != nil {
			t.Fatal(err)
		}
		if last != 1.0 {
			t.Errorf("roughness of the last level of %d should be 1 but is %v\n", edge, last)
		}

		prev := float32(-1)
		for _, m := range s.Levels() {
			r, _ := s.Roughness(m)
			if r <= prev {
				t.Errorf("roughness should increase, level %d of %d is %v after %v\n", m, edge, r, prev)
			}
			prev = r
		}
	}

	s, err := ibl.NewMipSchedule(256)
	if err != nil {
		t.Fatal(err)
	}
	if r, _ := s.Roughness(4); r != 0.5 {
		t.Errorf("roughness of level 4 of 256 should be 0.5 but is %v\n", r)
	}
}

func TestRoughnessRejectsSingleLevel(t *testing.T) {
	s, err := ibl.NewMipSchedule(1)
	if err != nil {
		t.Fatal(err)
	}
	if s.Count != 1 {
		t.Errorf("edge 1 should have 1 level but has %d\n", s.Count)
	}
	if _, err := s.Roughness(0); !errors.Is(err, ibl.ErrSchedule) {
		t.Errorf("roughness of a single level schedule should fail with ErrSchedule but is %v\n", err)
	}
}

func TestScheduleRejectsInvalidEdges(t *testing.T) {
	for _, edge := range []int{0, -4, 3, 100, 513} {
		if _, err := ibl.NewMipSchedule(edge); !errors.Is(err, ibl.ErrSchedule) {
			t.Errorf("edge %d should be rejected but got %v\n", edge, err)
		}
	}

	s, _ := ibl.NewMipSchedule(8)
	if _, err := s.Roughness(s.Count); err == nil {
		t.Errorf("roughness of level %d should be out of range\n", s.Count)
	}
}

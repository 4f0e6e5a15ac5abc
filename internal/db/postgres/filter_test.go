package postgres

import (
	"strings"
	"testing"

	"Pixelbox/internal/core/images"
)

func int64Ptr(v int64) *int64 { return &v }

func TestBuildRandomQuery_NoFilter(t *testing.T) {
	query, args := buildRandomQuery(images.FilterSpec{})

	if strings.Contains(query, "WHERE") {
		t.Errorf("expected no WHERE clause, got: %s", query)
	}
	if strings.Contains(query, "JOIN") {
		t.Errorf("expected no tag join, got: %s", query)
	}
	if !strings.HasSuffix(query, "ORDER BY RANDOM() LIMIT 1") {
		t.Errorf("expected random single-row selection, got: %s", query)
	}
	if len(args) != 0 {
		t.Errorf("expected no args, got %v", args)
	}
}

func TestBuildRandomQuery_TagsUseAndSemantics(t *testing.T) {
	query, args := buildRandomQuery(images.FilterSpec{Tags: []string{"Cat Pics", "cute"}})

	if !strings.Contains(query, "JOIN image_tags it ON i.hash = it.image_hash") {
		t.Errorf("expected association join, got: %s", query)
	}
	if !strings.Contains(query, "t.name IN ($1, $2)") {
		t.Errorf("expected bound tag placeholders, got: %s", query)
	}
	// Requiring the distinct match count to equal the set size is what makes
	// the tag filter conjunctive.
	if !strings.Contains(query, "GROUP BY i.hash HAVING COUNT(DISTINCT t.name) = $3") {
		t.Errorf("expected AND-semantics HAVING clause, got: %s", query)
	}

	if len(args) != 3 {
		t.Fatalf("expected 3 args, got %v", args)
	}
	if args[0] != "cat_pics" || args[1] != "cute" {
		t.Errorf("expected normalized tags in args, got %v", args)
	}
	if args[2] != 2 {
		t.Errorf("expected tag count 2, got %v", args[2])
	}
}

func TestBuildRandomQuery_ExactWinsOverRange(t *testing.T) {
	query, args := buildRandomQuery(images.FilterSpec{
		Width: images.NumberFilter{
			Exact: int64Ptr(800),
			Min:   int64Ptr(100),
			Max:   int64Ptr(1000),
		},
	})

	if !strings.Contains(query, "i.width = $1") {
		t.Errorf("expected exact predicate, got: %s", query)
	}
	if strings.Contains(query, "BETWEEN") {
		t.Errorf("exact must win over the range, got: %s", query)
	}
	if len(args) != 1 || args[0] != int64(800) {
		t.Errorf("expected single arg 800, got %v", args)
	}
}

func TestBuildRandomQuery_RangeNeedsBothBounds(t *testing.T) {
	// A lone Min places no constraint.
	query, args := buildRandomQuery(images.FilterSpec{
		Height: images.NumberFilter{Min: int64Ptr(100)},
	})
	if strings.Contains(query, "WHERE") {
		t.Errorf("expected half-open range to be ignored, got: %s", query)
	}
	if len(args) != 0 {
		t.Errorf("expected no args, got %v", args)
	}

	query, args = buildRandomQuery(images.FilterSpec{
		Height: images.NumberFilter{Min: int64Ptr(100), Max: int64Ptr(200)},
	})
	if !strings.Contains(query, "i.height BETWEEN $1 AND $2") {
		t.Errorf("expected closed range predicate, got: %s", query)
	}
	if len(args) != 2 || args[0] != int64(100) || args[1] != int64(200) {
		t.Errorf("expected bounds [100 200], got %v", args)
	}
}

func TestBuildRandomQuery_CombinedFiltersAndArgOrder(t *testing.T) {
	query, args := buildRandomQuery(images.FilterSpec{
		Tags:  []string{"cats"},
		Width: images.NumberFilter{Exact: int64Ptr(640)},
		Size:  images.NumberFilter{Min: int64Ptr(1000), Max: int64Ptr(5000)},
	})

	if !strings.Contains(query, "t.name IN ($1) AND i.width = $2 AND i.size_bytes BETWEEN $3 AND $4") {
		t.Errorf("expected AND-joined predicates in declaration order, got: %s", query)
	}
	if !strings.Contains(query, "HAVING COUNT(DISTINCT t.name) = $5") {
		t.Errorf("expected tag count as the final arg, got: %s", query)
	}

	want := []any{"cats", int64(640), int64(1000), int64(5000), 1}
	if len(args) != len(want) {
		t.Fatalf("expected %d args, got %v", len(want), args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Errorf("arg %d: expected %v, got %v", i, want[i], args[i])
		}
	}
}

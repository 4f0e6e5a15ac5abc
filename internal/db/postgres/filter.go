package postgres

import (
	"fmt"
	"strings"

	"Pixelbox/internal/core/images"
)

// buildRandomQuery translates a filter specification into one randomized
// selection. Every value goes through a bind parameter; the query text only
// ever contains enumerable clause fragments.
//
// Tag filtering uses AND semantics: joining through the association table
// and requiring the count of distinct matched tag names to equal the
// requested set size means an image must carry every requested tag (extra
// tags are fine). Grouping by the primary key keeps the other selected
// columns valid under Postgres functional dependency.
func buildRandomQuery(spec images.FilterSpec) (string, []any) {
	var (
		sb    strings.Builder
		conds []string
		args  []any
	)

	sb.WriteString(`SELECT i.hash, i.filename, i.created_at, i.modified_at, i.width, i.height, i.size_bytes FROM images i`)

	tags := spec.NormalizedTags()
	if len(tags) > 0 {
		sb.WriteString(` JOIN image_tags it ON i.hash = it.image_hash JOIN tags t ON it.tag_id = t.id`)

		placeholders := make([]string, len(tags))
		for i, tag := range tags {
			args = append(args, tag)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conds = append(conds, "t.name IN ("+strings.Join(placeholders, ", ")+")")
	}

	appendNumberCond(&conds, &args, "i.width", spec.Width)
	appendNumberCond(&conds, &args, "i.height", spec.Height)
	appendNumberCond(&conds, &args, "i.size_bytes", spec.Size)

	if len(conds) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	if len(tags) > 0 {
		args = append(args, len(tags))
		fmt.Fprintf(&sb, " GROUP BY i.hash HAVING COUNT(DISTINCT t.name) = $%d", len(args))
	}

	sb.WriteString(" ORDER BY RANDOM() LIMIT 1")
	return sb.String(), args
}

// appendNumberCond adds an equality predicate for an exact value, else a
// closed-range predicate when both bounds are present. An exact value wins
// over any min/max also present.
func appendNumberCond(conds *[]string, args *[]any, column string, f images.NumberFilter) {
	if f.IsZero() {
		return
	}
	if f.Exact != nil {
		*args = append(*args, *f.Exact)
		*conds = append(*conds, fmt.Sprintf("%s = $%d", column, len(*args)))
		return
	}
	*args = append(*args, *f.Min, *f.Max)
	*conds = append(*conds, fmt.Sprintf("%s BETWEEN $%d AND $%d", column, len(*args)-1, len(*args)))
}

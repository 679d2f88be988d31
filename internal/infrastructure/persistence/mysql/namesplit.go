package mysql

import (
	"fmt"

	"github.com/Kuan-Lun/h2hdb-sub000/internal/domain/h2h"
)

// namePartColumns returns the column names used to store a split name's
// fixed-width parts, e.g. namePartColumns("gallery_name") ->
// ["gallery_name_1", "gallery_name_2"].
func namePartColumns(prefix string) []string {
	cols := make([]string, 0, h2h.NamePartCount)
	for i := 1; i <= h2h.NamePartCount; i++ {
		cols = append(cols, fmt.Sprintf("%s_%d", prefix, i))
	}
	return cols
}

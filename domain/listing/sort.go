package listing

import (
	"sort"
	"strconv"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"duoadmin/domain/entity"
)

// Sort returns a copy of items ordered by spec. The sort is stable, so equal
// keys keep their prior relative order. Text keys compare with Vietnamese
// collation, ignoring case.
func Sort(e entity.Entity, items []Item, spec SortSpec) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	if spec.Key == "" {
		return out
	}

	less := comparator(entity.Describe(e), spec.Key)
	desc := spec.Direction == Desc
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return less(out[j], out[i]) < 0
		}
		return less(out[i], out[j]) < 0
	})
	return out
}

// ResolveSort applies the collection default when spec names no key.
func ResolveSort(e entity.Entity, spec SortSpec) SortSpec {
	if spec.Key != "" {
		if spec.Direction == "" {
			spec.Direction = Asc
		}
		return spec
	}
	d := entity.Describe(e)
	if d.DefaultSort == "" {
		return SortSpec{}
	}
	dir := Asc
	if d.DefaultSortDesc {
		dir = Desc
	}
	return SortSpec{Key: d.DefaultSort, Direction: dir}
}

func comparator(d entity.Descriptor, key string) func(a, b Item) int {
	col := collate.New(language.Vietnamese, collate.IgnoreCase)
	text := func(a, b Item) int {
		return col.CompareString(a.Field(key), b.Field(key))
	}

	switch {
	case key == "id":
		return func(a, b Item) int {
			x, errA := strconv.ParseFloat(a.ID, 64)
			y, errB := strconv.ParseFloat(b.ID, 64)
			if errA != nil || errB != nil {
				return text(a, b)
			}
			return compareFloat(x, y)
		}
	case d.IsNumeric(key):
		return func(a, b Item) int {
			x, _ := a.Number(key)
			y, _ := b.Number(key)
			return compareFloat(x, y)
		}
	case d.IsDate(key):
		return func(a, b Item) int {
			x, _ := a.Time(key)
			y, _ := b.Time(key)
			return x.Compare(y)
		}
	default:
		return text
	}
}

func compareFloat(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	}
	return 0
}

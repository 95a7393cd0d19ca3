package console

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"duoadmin/domain/entity"
	"duoadmin/domain/listing"
	"duoadmin/domain/session"
	"duoadmin/domain/shared"
)

// ExportFile is a rendered download.
type ExportFile struct {
	Name        string
	ContentType string
	Body        []byte
}

// Export renders every row matching state, in the page's sort order, not
// just the visible page.
func (s *ApplicationService) Export(ctx context.Context, sess session.Session, e entity.Entity, state listing.FilterState, format string) (*ExportFile, error) {
	exp, ok := s.exporters[strings.ToLower(format)]
	if !ok {
		return nil, shared.NewValidationError(string(e), "format", fmt.Sprintf("unsupported export format %q", format))
	}
	items, err := s.ensure(ctx, sess, e)
	if err != nil {
		return nil, err
	}

	filtered := listing.Filter(ctx, e, items, state)
	sorted := listing.Sort(e, filtered, listing.ResolveSort(e, state.Sort))

	var buf bytes.Buffer
	if err := exp.Write(&buf, e, sorted); err != nil {
		return nil, fmt.Errorf("render %s export: %w", exp.Format(), err)
	}
	return &ExportFile{
		Name:        fmt.Sprintf("%s-%s.%s", e, s.now().Format("20060102-150405"), exp.Format()),
		ContentType: exp.ContentType(),
		Body:        buf.Bytes(),
	}, nil
}

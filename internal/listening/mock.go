package listening

import (
	"context"
	"strconv"

	"github.com/mvaldes/encore/internal/domain"
)

// MockService serves scripted pages of events. Err, when set, is
// returned on the page at FailAt (0-based); FailAt defaults to the
// first page.
type MockService struct {
	ServiceName string
	Pages       [][]domain.RawListeningEvent
	Err         error
	FailAt      int

	Calls int
}

func (m *MockService) Name() string {
	return m.ServiceName
}

func (m *MockService) FetchPage(ctx context.Context, cursor string) ([]domain.RawListeningEvent, string, error) {
	page := 0
	if cursor != "" {
		page, _ = strconv.Atoi(cursor)
	}
	m.Calls++

	if m.Err != nil && page == m.FailAt {
		return nil, "", m.Err
	}
	if page >= len(m.Pages) {
		return nil, "", nil
	}

	next := ""
	if page+1 < len(m.Pages) {
		next = strconv.Itoa(page + 1)
	}
	return m.Pages[page], next, nil
}

package models

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
)

type FeedStatus int

const (
	FeedStatusLoading FeedStatus = iota
	FeedStatusError
	FeedStatusSuccess
)

func (s FeedStatus) String() string {
	switch s {
	case FeedStatusLoading:
		return "loading"
	case FeedStatusError:
		return "error"
	case FeedStatusSuccess:
		return "success"
	default:
		return "unknown"
	}
}

func (s FeedStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *FeedStatus) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch strings.ToLower(v) {
	case "loading":
		*s = FeedStatusLoading
	case "error":
		*s = FeedStatusError
	case "success":
		*s = FeedStatusSuccess
	default:
		return errors.Errorf("unknown feed status %q", v)
	}
	return nil
}

// FeedState is one of Loading, Error or Success. Movies is set only
// for Success.
type FeedState struct {
	Status FeedStatus `json:"status"`
	Movies []Movie    `json:"movies,omitempty"`
}

func FeedLoading() FeedState {
	return FeedState{Status: FeedStatusLoading}
}

func FeedFailed() FeedState {
	return FeedState{Status: FeedStatusError}
}

func FeedSucceeded(movies []Movie) FeedState {
	if movies == nil {
		movies = []Movie{}
	}
	return FeedState{Status: FeedStatusSuccess, Movies: movies}
}

func (s FeedState) IsLoading() bool {
	return s.Status == FeedStatusLoading
}

func (s FeedState) IsError() bool {
	return s.Status == FeedStatusError
}

func (s FeedState) IsSuccess() bool {
	return s.Status == FeedStatusSuccess
}

// Find looks up movie by id among successfully loaded movies.
func (s FeedState) Find(id int) (Movie, bool) {
	if !s.IsSuccess() {
		return Movie{}, false
	}
	for _, m := range s.Movies {
		if m.ID == id {
			return m, true
		}
	}
	return Movie{}, false
}

type SelectedMovie struct {
	Movie      Movie `json:"movie"`
	Present    bool  `json:"present"`
	Liked      bool  `json:"liked"`
	Bookmarked bool  `json:"bookmarked"`
}

// AppState is an immutable snapshot of the application. It is replaced
// wholesale on every change, slices inside are never modified after
// publication.
type AppState struct {
	Version     uint64        `json:"version"`
	Catalog     FeedState     `json:"catalog"`
	Search      FeedState     `json:"search"`
	SearchQuery string        `json:"search_query"`
	Selected    SelectedMovie `json:"selected"`
	Liked       []StoredMovie `json:"liked"`
	Bookmarked  []StoredMovie `json:"bookmarked"`
}

func NewAppState() AppState {
	return AppState{
		Catalog:    FeedLoading(),
		Search:     FeedLoading(),
		Liked:      []StoredMovie{},
		Bookmarked: []StoredMovie{},
	}
}

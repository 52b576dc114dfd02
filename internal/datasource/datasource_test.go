package datasource_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	"cricketstats/internal/datasource"
	"cricketstats/internal/datasource/file"
	"cricketstats/internal/datasource/httpds"
)

type bare struct{}

func (bare) Open(context.Context) (io.ReadCloser, error) { return nil, io.EOF }

func TestLocation(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		src  datasource.Source
		want string
	}{
		{"local file", file.NewLocal("/tmp/odis_json.zip"), "/tmp/odis_json.zip"},
		{"http", httpds.NewSource(nil, "https://cricsheet.org/downloads/odis_json.zip"), "https://cricsheet.org/downloads/odis_json.zip"},
		{"unnamed", bare{}, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, datasource.Location(tc.src))
		})
	}
}

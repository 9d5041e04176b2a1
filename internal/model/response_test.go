package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorBodyText(t *testing.T) {
	tests := []struct {
		name string
		body ErrorBody
		want string
	}{
		{"msg preferred", ErrorBody{Msg: "new", Message: "old"}, "new"},
		{"legacy message fallback", ErrorBody{Message: "old"}, "old"},
		{"both absent", ErrorBody{Code: "E100"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.body.Text())
		})
	}
}

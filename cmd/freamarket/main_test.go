package main

import (
	"reflect"
	"testing"
)

func TestRewriteDirectItemLookupArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "no args",
			in:   []string{"freamarket"},
			want: []string{"freamarket"},
		},
		{
			name: "direct item id first token",
			in:   []string{"freamarket", "42"},
			want: []string{"freamarket", "items", "show", "42"},
		},
		{
			name: "direct item id after value flag",
			in:   []string{"freamarket", "--server", "http://localhost:9000", "42"},
			want: []string{"freamarket", "--server", "http://localhost:9000", "items", "show", "42"},
		},
		{
			name: "direct item id after equals flag",
			in:   []string{"freamarket", "--format=text", "42"},
			want: []string{"freamarket", "--format=text", "items", "show", "42"},
		},
		{
			name: "direct item id after bool flag",
			in:   []string{"freamarket", "--pretty", "42"},
			want: []string{"freamarket", "--pretty", "items", "show", "42"},
		},
		{
			name: "direct item id after double dash",
			in:   []string{"freamarket", "--format", "edn", "--", "42"},
			want: []string{"freamarket", "--format", "edn", "--", "items", "show", "42"},
		},
		{
			name: "zero is not an id",
			in:   []string{"freamarket", "0"},
			want: []string{"freamarket", "0"},
		},
		{
			name: "normal subcommand not rewritten",
			in:   []string{"freamarket", "items", "show", "42"},
			want: []string{"freamarket", "items", "show", "42"},
		},
		{
			name: "unknown command not rewritten",
			in:   []string{"freamarket", "wat"},
			want: []string{"freamarket", "wat"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := rewriteDirectItemLookupArgs(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("rewriteDirectItemLookupArgs:\n got: %#v\nwant: %#v", got, tt.want)
			}
		})
	}
}

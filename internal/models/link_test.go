package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainOf(t *testing.T) {
	tests := []struct {
		destination string
		expected    string
	}{
		{"https://example.com/page", "example.com"},
		{"https://Example.COM:8443/x", "example.com"},
		{"http://sub.example.org", "sub.example.org"},
		{"not a url", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, DomainOf(tt.destination), "DomainOf(%q)", tt.destination)
	}
}

func TestCreateLinkRequestValidate(t *testing.T) {
	valid := CreateLinkRequest{Code: "promo", Destination: "https://example.com/landing"}
	assert.NoError(t, valid.Validate())

	tests := []CreateLinkRequest{
		{Code: "", Destination: "https://example.com"},
		{Code: "   ", Destination: "https://example.com"},
		{Code: "x", Destination: ""},
		{Code: "x", Destination: "example.com/no-scheme"},
		{Code: "x", Destination: "ftp://example.com/file"},
	}

	for _, tt := range tests {
		assert.Error(t, tt.Validate(), "expected %+v to be invalid", tt)
	}
}

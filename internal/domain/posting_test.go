package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFunction(t *testing.T) {
	assert.Equal(t, SalesTrading, ParseFunction("S&T"))
	assert.Equal(t, QuantResearch, ParseFunction("QR"))
	assert.Equal(t, Function(""), ParseFunction("Sales"))
	assert.Equal(t, Function(""), ParseFunction(""))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, MD, ParseLevel("MD"))
	assert.Equal(t, Level(""), ParseLevel("Junior"))
	assert.Equal(t, Level(""), ParseLevel("vp"))
}

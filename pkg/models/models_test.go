package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContract_BeforeCreate(t *testing.T) {
	c := &Contract{TenantID: uuid.New(), Title: "Mutual NDA"}
	require.NoError(t, c.BeforeCreate(nil))
	assert.NotEqual(t, uuid.Nil, c.ID)
	assert.Equal(t, StatusDraft, c.Status)

	assert.Error(t, (&Contract{Title: "No Tenant"}).BeforeCreate(nil))
	assert.Error(t, (&Contract{TenantID: uuid.New()}).BeforeCreate(nil))
}

func TestContract_SearchBody(t *testing.T) {
	c := &Contract{Description: "desc", Content: "content"}
	assert.Equal(t, "desc\n\ncontent", c.SearchBody())

	assert.Equal(t, "content", (&Contract{Content: "content"}).SearchBody())
	assert.Equal(t, "desc", (&Contract{Description: "desc"}).SearchBody())
	assert.Empty(t, (&Contract{}).SearchBody())
}

func TestContractEmbedding_BeforeCreate(t *testing.T) {
	e := &ContractEmbedding{
		ContractID: uuid.New(),
		TenantID:   uuid.New(),
		Embedding:  Vector{0.1, 0.2, 0.3},
		Model:      "voyage-law-2",
	}
	require.NoError(t, e.BeforeCreate(nil))
	assert.Equal(t, 3, e.Dimensions, "dimensions default to vector length")
	assert.False(t, e.GeneratedAt.IsZero())

	missing := &ContractEmbedding{ContractID: uuid.New(), TenantID: uuid.New(), Model: "m"}
	assert.Error(t, missing.BeforeCreate(nil))
}

func TestVector_RoundTrip(t *testing.T) {
	v := Vector{0.5, -1.25, 3}

	raw, err := v.Value()
	require.NoError(t, err)

	var got Vector
	require.NoError(t, got.Scan(raw))
	assert.Equal(t, v, got)

	// String-typed column values scan too.
	var fromString Vector
	require.NoError(t, fromString.Scan("[1,2]"))
	assert.Equal(t, Vector{1, 2}, fromString)

	var fromNil Vector
	require.NoError(t, fromNil.Scan(nil))
	assert.Nil(t, fromNil)

	assert.Error(t, (&Vector{}).Scan(42))
}

func TestAuditLog_BeforeCreate(t *testing.T) {
	a := &AuditLog{TenantID: uuid.New(), Actor: "user@example.com", Action: "contract.created"}
	require.NoError(t, a.BeforeCreate(nil))

	assert.Error(t, (&AuditLog{Actor: "a", Action: "b"}).BeforeCreate(nil))
	assert.Error(t, (&AuditLog{TenantID: uuid.New(), Action: "b"}).BeforeCreate(nil))
	assert.Error(t, (&AuditLog{TenantID: uuid.New(), Actor: "a"}).BeforeCreate(nil))
}

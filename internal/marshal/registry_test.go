package marshal

import (
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/rxdata-go/pkg/util/merr"
)

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("Blob", CapabilityOpaque, blobDecoder{}))
	require.NoError(t, reg.Register("Point", CapabilityAttributes, pointDecoder{}))

	entry, ok := reg.Lookup("Blob")
	require.True(t, ok)
	assert.Equal(t, "Blob", entry.Name)
	_, ok = entry.Opaque()
	assert.True(t, ok)
	_, ok = entry.Attributes()
	assert.False(t, ok)

	_, ok = reg.Lookup("Missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"Blob", "Point"}, reg.Names())
}

func TestRegistryCapabilityMismatch(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register("Blob", CapabilityObject, blobDecoder{})
	assert.True(t, errors.Is(err, merr.ErrCapabilityMismatch))
	assert.Contains(t, err.Error(), "required=object")
	assert.Contains(t, err.Error(), "declared=opaque")

	err = reg.Register("Thing", CapabilityOpaque, struct{}{})
	assert.True(t, errors.Is(err, merr.ErrCapabilityMismatch))
	assert.Equal(t, merr.SystemError, merr.GetErrorType(err))

	assert.Empty(t, reg.Names())
}

func TestRegistryInvalid(t *testing.T) {
	reg := NewRegistry()
	assert.True(t, errors.Is(reg.Register("", CapabilityOpaque, blobDecoder{}), merr.ErrParameterMissing))
	assert.True(t, errors.Is(reg.Register("X", CapabilityOpaque, nil), merr.ErrParameterMissing))
	assert.True(t, errors.Is(reg.Register("X", Capability(9), blobDecoder{}), merr.ErrParameterInvalid))

	require.NoError(t, reg.Register("X", CapabilityOpaque, blobDecoder{}))
	assert.True(t, errors.Is(reg.Register("X", CapabilityOpaque, blobDecoder{}), merr.ErrParameterInvalid))
	assert.Panics(t, func() { reg.MustRegister("X", CapabilityOpaque, blobDecoder{}) })
}

func TestRegistryConcurrentLookup(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("Blob", CapabilityOpaque, blobDecoder{})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, ok := reg.Lookup("Blob")
				assert.True(t, ok)
			}
		}()
	}
	wg.Wait()
}

func TestCapabilityString(t *testing.T) {
	assert.Equal(t, "opaque", CapabilityOpaque.String())
	assert.Equal(t, "attributes", CapabilityAttributes.String())
	assert.Equal(t, "object", CapabilityObject.String())
	assert.Equal(t, "unknown", Capability(0).String())
}

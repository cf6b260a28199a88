package registry_test

import (
	"testing"

	"github.com/enersync/utility_sync_app/internal/core/domain"
	"github.com/enersync/utility_sync_app/internal/core/entity"
	"github.com/enersync/utility_sync_app/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_ScopeLifecycle(t *testing.T) {
	r := registry.New()

	assert.Nil(t, r.Scope("user@example.com"))

	scope := r.GetOrCreateScope("user@example.com")
	require.NotNil(t, scope)
	assert.Same(t, scope, r.GetOrCreateScope("user@example.com"))
	assert.Same(t, scope, r.Scope("user@example.com"))

	r.RemoveScope("user@example.com")
	assert.Nil(t, r.Scope("user@example.com"))
}

func TestScope_AccountEntities(t *testing.T) {
	r := registry.New()
	scope := r.GetOrCreateScope("user@example.com")

	assert.Nil(t, scope.Get("1234"))
	assert.Empty(t, scope.All())

	ent := entity.NewAccountEntity(domain.Account{ServiceID: 1, AccountCode: "1234"}, "Account {code}")
	scope.Upsert("1234", ent)
	assert.Same(t, ent, scope.Get("1234"))
	assert.Len(t, scope.All(), 1)

	// Upsert replaces the previous holder of the code.
	replacement := entity.NewAccountEntity(domain.Account{ServiceID: 2, AccountCode: "1234"}, "Account {code}")
	scope.Upsert("1234", replacement)
	assert.Same(t, replacement, scope.Get("1234"))
	assert.Len(t, scope.All(), 1)

	scope.Remove("1234")
	assert.Nil(t, scope.Get("1234"))
}

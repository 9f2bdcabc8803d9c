package rankings

import (
	"testing"

	"rankcore/testutil"
)

// TestDomainBoundary enforces that the domain layer stays free of internal
// packages. Every layer consumes these types; an edge back into internal
// would make that cyclic.
func TestDomainBoundary(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", testutil.InternalImportForbidden,
		"domain types must not import internal packages")

	testutil.AssertNoTransitiveDependency(t, ".", testutil.InternalImportForbidden,
		"domain types must not depend on internal packages transitively")
}

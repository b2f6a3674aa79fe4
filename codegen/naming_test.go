package codegen

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistrarName_Deterministic(t *testing.T) {
	a := RegistrarName(DefaultPrefix, []string{"example.com/app/businesscn/card"})
	b := RegistrarName(DefaultPrefix, []string{"example.com/app/businesscn/card"})
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, DefaultPrefix))
	assert.Len(t, strings.TrimPrefix(a, DefaultPrefix), 32)
}

func TestRegistrarName_SinglePackageIsHashOfPackage(t *testing.T) {
	pkg := "example.com/app/businessexp/card"
	sum := md5.Sum([]byte(pkg))

	assert.Equal(t, "X_"+hex.EncodeToString(sum[:]), RegistrarName("X_", []string{pkg}))
}

func TestRegistrarName_OrderAndDuplicatesIgnored(t *testing.T) {
	a := RegistrarName(DefaultPrefix, []string{"example.com/a", "example.com/b"})
	b := RegistrarName(DefaultPrefix, []string{"example.com/b", "example.com/a", "example.com/b"})
	assert.Equal(t, a, b)
}

func TestRegistrarName_DistinctPackagesDiffer(t *testing.T) {
	seen := make(map[string]string)
	for _, pkg := range []string{
		"example.com/app/businesscn/card",
		"example.com/app/businessexp/card",
		"example.com/app/card",
		"example.com/other/card",
	} {
		name := RegistrarName(DefaultPrefix, []string{pkg})
		if prev, ok := seen[name]; ok {
			t.Fatalf("%s and %s share registrar name %s", prev, pkg, name)
		}
		seen[name] = pkg
	}
}

func TestRegistrarFilename(t *testing.T) {
	assert.Equal(t, "cardregistrar_abc.go", registrarFilename("CardRegistrar_abc", DefaultPrefix))
}

package golang

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jxapi/jxgen/internal/codegen"
	"github.com/jxapi/jxgen/internal/descriptor"
	"github.com/jxapi/jxgen/internal/model"
)

var scalarNames = descriptor.Scalars

func randomTypeExpr(r *rand.Rand, refs []string) *descriptor.TypeExpr {
	var t *descriptor.TypeExpr
	if len(refs) > 0 && r.Intn(3) == 0 {
		t = &descriptor.TypeExpr{Kind: descriptor.TypeNamed, Name: refs[r.Intn(len(refs))]}
	} else {
		t = &descriptor.TypeExpr{Kind: descriptor.TypeNamed, Name: scalarNames[r.Intn(len(scalarNames))]}
	}
	switch r.Intn(4) {
	case 0:
		t = &descriptor.TypeExpr{Kind: descriptor.TypeList, Elem: t}
	case 1:
		t = &descriptor.TypeExpr{Kind: descriptor.TypeMap, Elem: t}
	}
	return t
}

// randomPojos builds an acyclic set of entities with random fields
func randomPojos(r *rand.Rand, n int) []*descriptor.Descriptor {
	out := make([]*descriptor.Descriptor, n)
	for i := n - 1; i >= 0; i-- {
		var refs []string
		for j := i + 1; j < n; j++ {
			refs = append(refs, fmt.Sprintf("Entity%d", j))
		}
		pojo := &descriptor.Pojo{Name: fmt.Sprintf("Entity%d", i)}
		for f := range r.Intn(8) {
			pojo.Fields = append(pojo.Fields, descriptor.Field{
				Name:     fmt.Sprintf("field_%d", f),
				Type:     randomTypeExpr(r, refs),
				Required: r.Intn(2) == 0,
			})
		}
		out[i] = &descriptor.Descriptor{Kind: descriptor.KindPojo, Name: "gen." + pojo.Name, Package: "gen", Pojo: pojo}
	}
	return out
}

func TestGenerator_PropertyBasedValidGo(t *testing.T) {
	// Test: All generated code should be valid Go syntax
	r := rand.New(rand.NewSource(1))

	for i := range 50 {
		t.Run(fmt.Sprintf("random_model_%d", i), func(t *testing.T) {
			m := buildModel(t, model.ModePojo, randomPojos(r, 1+r.Intn(6)), nil)

			units, err := NewGenerator().Generate(m, codegen.Options{PackageName: "testpkg"})
			require.NoError(t, err)
			require.Len(t, units, len(m.Entities))
			assertValidGo(t, units)
		})
	}
}

package converter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ozontech/jrpc/model"
)

func TestAreCompatible(t *testing.T) {
	t.Parallel()
	a := assert.New(t)
	all := []model.Kind{model.KindNull, model.KindBoolean, model.KindNumber, model.KindString, model.KindObject, model.KindArray}

	allowed := map[model.Kind][]model.Kind{
		model.KindNumber:  all,
		model.KindBoolean: {model.KindBoolean, model.KindObject},
		model.KindNull:    {model.KindString, model.KindObject},
		model.KindString:  {model.KindString, model.KindObject},
		model.KindObject:  {model.KindObject},
		model.KindArray:   {model.KindArray, model.KindObject},
	}
	for src, dsts := range allowed {
		for _, dst := range all {
			a.Equal(contains(dsts, dst), AreCompatible(src, dst), "%s -> %s", src, dst)
		}
	}
}

func TestIsExact(t *testing.T) {
	t.Parallel()
	a := assert.New(t)

	a.True(IsExact(model.KindNumber, model.KindNumber))
	a.True(IsExact(model.KindString, model.KindString))
	a.False(IsExact(model.KindNumber, model.KindString))
	a.False(IsExact(model.KindNull, model.KindNull))
	a.False(IsExact(model.KindNull, model.KindObject))
}

func contains(ks []model.Kind, k model.Kind) bool {
	for _, x := range ks {
		if x == k {
			return true
		}
	}
	return false
}

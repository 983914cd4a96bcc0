package flatten

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RaikyD/lengow-mws-connector/internal/domain"
)

func TestFlatten_NestedExample(t *testing.T) {
	in := map[string]any{
		"pk1": "v1",
		"pk2": map[string]any{"ck1": "v2", "ck2": "v3"},
		"pk3": []any{
			map[string]any{"ck3": "v4", "ck4": "v5"},
			map[string]any{"ck3": "v6", "ck4": "v7"},
		},
		"pk4": []any{"v8", "v9"},
	}

	got, err := Flatten(in, "")
	require.NoError(t, err)

	assert.Equal(t, Params{
		"pk1":              "v1",
		"pk2.ck1":          "v2",
		"pk2.ck2":          "v3",
		"pk3.member.1.ck3": "v4",
		"pk3.member.1.ck4": "v5",
		"pk3.member.2.ck3": "v6",
		"pk3.member.2.ck4": "v7",
		"pk4.1":            "v8",
		"pk4.2":            "v9",
	}, got)
}

func TestFlatten_ScalarWithPrefix(t *testing.T) {
	got, err := Flatten(42, "Quantity")
	require.NoError(t, err)
	assert.Equal(t, Params{"Quantity": 42}, got)
}

func TestFlatten_TypedSlices(t *testing.T) {
	got, err := Flatten(map[string]any{
		"Items": []map[string]any{{"SKU": "a"}},
		"Email": []string{"x@y.z"},
		"Money": map[string]string{"Value": "1.50"},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, Params{
		"Items.member.1.SKU": "a",
		"Email.1":            "x@y.z",
		"Money.Value":        "1.50",
	}, got)
}

func TestFlatten_DoesNotMutateInput(t *testing.T) {
	inner := map[string]any{"b": "x"}
	in := map[string]any{"a": inner}

	_, err := Flatten(in, "root")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": map[string]any{"b": "x"}}, in)
}

func TestFlatten_UnsupportedValues(t *testing.T) {
	cases := map[string]any{
		"nil":    map[string]any{"a": nil},
		"bool":   map[string]any{"a": true},
		"struct": []any{struct{}{}},
		"ptr":    map[string]any{"a": new(int)},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Flatten(in, "")
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrUnsupportedValue))
		})
	}
}

func TestFlatten_DuplicatePathRejected(t *testing.T) {
	// "a.b" as a literal key collides with the nested a -> b path.
	_, err := Flatten(map[string]any{
		"a.b": "x",
		"a":   map[string]any{"b": "y"},
	}, "")
	assert.ErrorIs(t, err, domain.ErrUnsupportedValue)
}

func TestParams_Values(t *testing.T) {
	p := Params{
		"s": "text",
		"i": 3,
		"f": 12.5,
		"n": json.Number("7"),
	}
	v := p.Values()
	assert.Equal(t, "text", v.Get("s"))
	assert.Equal(t, "3", v.Get("i"))
	assert.Equal(t, "12.5", v.Get("f"))
	assert.Equal(t, "7", v.Get("n"))
	assert.Equal(t, []string{"f", "i", "n", "s"}, p.Keys())
}

// Every scalar leaf shows up exactly once in the flattened output, under a
// key that starts with its parent's path.
func TestFlatten_LeafMultisetProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("flattened values equal the multiset of leaves", prop.ForAll(
		func(m map[string]string, list []string) bool {
			nested := make(map[string]any, len(m))
			for k, v := range m {
				nested[k] = v
			}
			tags := make([]any, 0, len(list))
			for _, s := range list {
				tags = append(tags, s)
			}
			tree := map[string]any{
				"nested": nested,
				"rows":   []any{nested, nested},
				"tags":   tags,
			}

			got, err := Flatten(tree, "")
			if err != nil {
				return false
			}

			var want []string
			for i := 0; i < 3; i++ {
				for _, v := range m {
					want = append(want, v)
				}
			}
			want = append(want, list...)

			var have []string
			for k, v := range got {
				if !strings.HasPrefix(k, "nested.") &&
					!strings.HasPrefix(k, "rows.member.") &&
					!strings.HasPrefix(k, "tags.") {
					return false
				}
				have = append(have, v.(string))
			}
			sort.Strings(want)
			sort.Strings(have)
			if len(want) != len(have) {
				return false
			}
			for i := range want {
				if want[i] != have[i] {
					return false
				}
			}
			return true
		},
		gen.MapOf(gen.Identifier(), gen.AlphaString()),
		gen.SliceOf(gen.AlphaString()),
	))

	properties.TestingRun(t)
}

func TestFlatten_Deterministic(t *testing.T) {
	tree := map[string]any{"b": "2", "a": []any{"1", map[string]any{"z": 1, "y": 2}}}
	first, err := Flatten(tree, "")
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Flatten(tree, "")
		require.NoError(t, err)
		assert.Equal(t, first.Keys(), again.Keys())
	}
	assert.Equal(t, []string{"a.1", "a.member.2.y", "a.member.2.z", "b"}, first.Keys())
}

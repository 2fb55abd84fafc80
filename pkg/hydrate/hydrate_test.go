package hydrate

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-physiology/lyphgraph/pkg/colormap"
	"github.com/open-physiology/lyphgraph/pkg/errors"
	"github.com/open-physiology/lyphgraph/pkg/metamodel"
	"github.com/open-physiology/lyphgraph/pkg/model"
	"github.com/open-physiology/lyphgraph/pkg/schema"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	return newSessionWith(t, model.DefaultClasses())
}

func newSessionWith(t *testing.T, classes *model.Classes) *Session {
	t.Helper()
	meta, err := metamodel.Default()
	require.NoError(t, err)
	s, err := NewSession(meta, classes, log.New(io.Discard))
	require.NoError(t, err)
	return s
}

// doc decodes a JSON literal the way model files are decoded.
func doc(t *testing.T, src string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(src), &m))
	return m
}

func hydrate(t *testing.T, s *Session, src string) *model.Resource {
	t.Helper()
	res, err := s.FromJSON(doc(t, src), "")
	require.NoError(t, err)
	return res
}

func get(t *testing.T, s *Session, id string) *model.Resource {
	t.Helper()
	res, ok := s.Registry().Get(id)
	require.True(t, ok, "registry has %q", id)
	return res
}

func mustScale(t *testing.T, name string) colormap.Func {
	t.Helper()
	f, ok := colormap.Lookup(name)
	require.True(t, ok, "colormap %q", name)
	return f
}

func codes(ds []errors.Diagnostic) []errors.Code {
	out := make([]errors.Code, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Code)
	}
	return out
}

func TestNewSessionRequiresRegistries(t *testing.T) {
	meta, err := metamodel.Default()
	require.NoError(t, err)

	_, err = NewSession(nil, model.DefaultClasses(), nil)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
	_, err = NewSession(meta, nil, nil)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestFromJSONNil(t *testing.T) {
	_, err := newSession(t).FromJSON(nil, "Graph")
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestSessionBusy(t *testing.T) {
	s := newSession(t)
	s.busy.Store(true)
	_, err := s.FromJSON(map[string]any{"id": "n"}, model.ClassNode)
	assert.ErrorIs(t, err, ErrSessionBusy)
	assert.True(t, errors.Is(err, errors.ErrCodeBusy))

	s.busy.Store(false)
	_, err = s.FromJSON(map[string]any{"id": "n"}, model.ClassNode)
	assert.NoError(t, err)
}

func TestLinkStubs(t *testing.T) {
	s := newSession(t)
	l1 := hydrate(t, s, `{"id": "L1", "class": "Link", "source": "N1", "target": "N2"}`)

	assert.Equal(t, []string{"L1", "N1", "N2"}, s.Registry().IDs())
	assert.Equal(t, model.KindLink, l1.Kind)

	n1 := get(t, s, "N1")
	assert.Same(t, n1, l1.Ref("source"))
	assert.True(t, n1.Stub)
	assert.Equal(t, "N1", n1.ID)
	assert.Equal(t, []*model.Resource{l1}, n1.Refs("sourceOf"))
	assert.Equal(t, []*model.Resource{l1}, get(t, s, "N2").Refs("targetOf"))

	dangling := 0
	for _, d := range s.Diagnostics() {
		if d.Code == errors.ErrCodeDanglingReference {
			dangling++
		}
	}
	assert.Equal(t, 2, dangling)
}

func TestDuplicateLayersScalarInverse(t *testing.T) {
	s := newSession(t)
	lyph := hydrate(t, s, `{"id": "Lyph1", "class": "Lyph", "layers": ["Layer1", "Layer1"]}`)

	layer := get(t, s, "Layer1")
	assert.Equal(t, []any{layer}, lyph.Fields["layers"])
	assert.Same(t, lyph, layer.Ref("layerIn"))
	assert.NotContains(t, codes(s.Diagnostics()), errors.ErrCodeConsistency)
}

func TestAssignProperty(t *testing.T) {
	s := newSession(t)
	hydrate(t, s, `{
		"id": "g", "class": "Group",
		"nodes": [{"id": "n1"}, {"id": "n2"}, {"id": "n3"}],
		"assign": [{"path": "$.nodes", "value": {"charge": 10}}]
	}`)

	for _, id := range []string{"n1", "n2", "n3"} {
		charge, ok := get(t, s, id).Float("charge")
		assert.True(t, ok)
		assert.Equal(t, 10.0, charge, id)
	}
}

func TestInterpolateOffset(t *testing.T) {
	s := newSession(t)
	hydrate(t, s, `{
		"id": "g", "class": "Group",
		"nodes": [{"id": "a"}, {"id": "b"}, {"id": "c"}, {"id": "d"}],
		"interpolate": [{"path": "$.nodes", "offset": {"start": 0, "end": 1}}]
	}`)

	for i, id := range []string{"a", "b", "c", "d"} {
		off, ok := get(t, s, id).Float("offset")
		require.True(t, ok)
		assert.InDelta(t, 0.2*float64(i+1), off, 1e-9, id)
	}
}

func TestInterpolateDefaultPath(t *testing.T) {
	s := newSession(t)
	hydrate(t, s, `{
		"id": "g", "class": "Group",
		"nodes": [{"id": "a"}, {"id": "b"}],
		"interpolate": [{"offset": {"start": 1, "end": 4}}]
	}`)

	a, _ := get(t, s, "a").Float("offset")
	b, _ := get(t, s, "b").Float("offset")
	assert.InDelta(t, 2.0, a, 1e-9)
	assert.InDelta(t, 3.0, b, 1e-9)
}

func TestArrayFieldSingleInlineObject(t *testing.T) {
	s := newSession(t)
	lyph := hydrate(t, s, `{"id": "Lyph1", "class": "Lyph", "layers": {"id": "Layer1"}}`)

	layer := get(t, s, "Layer1")
	assert.Equal(t, []any{layer}, lyph.Fields["layers"])
	assert.Equal(t, model.ClassLyph, layer.Class)
	assert.False(t, layer.Stub)
}

func TestDefaultFallback(t *testing.T) {
	s := newSession(t)
	n := hydrate(t, s, `{"id": "n", "class": "Node", "charge": 3}`)

	assert.Equal(t, 1.0, n.Get("val"))
	assert.Equal(t, false, n.Get("fixed"))
	assert.Equal(t, "", n.Get("name"))
	assert.Equal(t, 3.0, n.Get("charge"))
	assert.Nil(t, n.Get("hostedBy"))
}

func TestShapeBorder(t *testing.T) {
	s := newSession(t)
	lyph := hydrate(t, s, `{"id": "L", "class": "Lyph"}`)

	border := get(t, s, "L_border")
	assert.Equal(t, model.KindBorder, border.Kind)
	assert.Same(t, border, lyph.Ref("border"))
	assert.Same(t, lyph, border.Ref("host"))
}

func TestStubFilledInPlace(t *testing.T) {
	s := newSession(t)
	hydrate(t, s, `{
		"id": "G", "class": "Graph",
		"links": [{"id": "L", "source": "N"}],
		"nodes": [{"id": "N", "charge": 2}]
	}`)

	n := get(t, s, "N")
	assert.False(t, n.Stub)
	assert.Equal(t, model.KindNode, n.Kind)
	assert.Same(t, n, get(t, s, "L").Ref("source"))
	assert.Equal(t, []*model.Resource{get(t, s, "L")}, n.Refs("sourceOf"))
	assert.NotContains(t, codes(s.Diagnostics()), errors.ErrCodeDanglingReference)
}

func TestStubFilledAcrossPasses(t *testing.T) {
	s := newSession(t)
	l := hydrate(t, s, `{"id": "L", "class": "Link", "source": "N"}`)
	stub := get(t, s, "N")
	require.True(t, stub.Stub)

	n := hydrate(t, s, `{"id": "N", "class": "Node", "charge": 4}`)
	assert.Same(t, stub, n)
	assert.False(t, n.Stub)
	assert.Equal(t, 4.0, n.Get("charge"))
	assert.Equal(t, []*model.Resource{l}, n.Refs("sourceOf"), "inverse mirrored onto the stub survives")
}

func TestTypeMismatchOnStubFill(t *testing.T) {
	s := newSession(t)
	hydrate(t, s, `{
		"id": "G", "class": "Graph",
		"links": [{"id": "l1", "source": "x"}],
		"lyphs": [{"id": "x"}]
	}`)
	assert.Contains(t, codes(s.Diagnostics()), errors.ErrCodeTypeMismatch)
	assert.Equal(t, model.ClassLyph, get(t, s, "x").Class)
}

func TestUnknownProperty(t *testing.T) {
	s := newSession(t)
	n := hydrate(t, s, `{"id": "n", "class": "Node", "foo": 1, "entitiesByID": {}, "_inactive": true}`)

	var unknown []errors.Diagnostic
	for _, d := range s.Diagnostics() {
		if d.Code == errors.ErrCodeUnknownProperty {
			unknown = append(unknown, d)
		}
	}
	require.Len(t, unknown, 1)
	assert.Equal(t, "foo", unknown[0].Field)
	assert.Equal(t, "n", unknown[0].Resource)
	assert.Equal(t, 1.0, n.Get("foo"), "value is kept")
}

func TestGeneratedAndNumericIDs(t *testing.T) {
	s := newSession(t)
	n := hydrate(t, s, `{"class": "Node", "name": "anon"}`)
	assert.Equal(t, "new_0", n.ID)

	l := hydrate(t, s, `{"id": 5, "class": "Link", "source": 7}`)
	assert.Equal(t, "5", l.ID)
	assert.Equal(t, "7", l.Ref("source").ID)

	c := codes(s.Diagnostics())
	assert.Contains(t, c, errors.ErrCodeGeneratedID)
	assert.Contains(t, c, errors.ErrCodeValueCoerced)
}

func TestGeneratedIDSkipsTaken(t *testing.T) {
	s := newSession(t)
	hydrate(t, s, `{"id": "new_1", "class": "Node"}`)
	n := hydrate(t, s, `{"class": "Node"}`)
	assert.Equal(t, "new_2", n.ID)
}

func TestAbstractTarget(t *testing.T) {
	s := newSession(t)
	n := hydrate(t, s, `{"id": "n", "class": "Node", "internalIn": {"id": "r", "class": "Region"}}`)
	r := get(t, s, "r")
	assert.Same(t, r, n.Ref("internalIn"))
	assert.Equal(t, []*model.Resource{n}, r.Refs("internalNodes"))

	m := hydrate(t, s, `{"id": "m", "class": "Node", "internalIn": {"id": "s"}}`)
	assert.Equal(t, map[string]any{"id": "s"}, m.Get("internalIn"), "abstract class without concrete class is passed through")
	assert.False(t, s.Registry().Has("s"))
	assert.Contains(t, codes(s.Diagnostics()), errors.ErrCodeSchema)
}

func TestUndeclaredClass(t *testing.T) {
	s := newSession(t)
	b := hydrate(t, s, `{"id": "b", "class": "Blob", "x": "y"}`)
	assert.Equal(t, model.KindUnresolved, b.Kind)
	assert.Equal(t, "y", b.Get("x"))
	assert.Contains(t, codes(s.Diagnostics()), errors.ErrCodeUnknownClass)
}

func TestClassWithoutFactoryStillResolved(t *testing.T) {
	s := newSessionWith(t, model.NewClasses())
	l := hydrate(t, s, `{"id": "l", "class": "Link", "source": "n"}`)

	assert.Equal(t, model.KindUnresolved, l.Kind)
	assert.Equal(t, model.ClassLink, l.Class)
	assert.Same(t, get(t, s, "n"), l.Ref("source"))
	assert.Equal(t, []*model.Resource{l}, get(t, s, "n").Refs("sourceOf"))
}

func TestConsistencyFirstWriterWins(t *testing.T) {
	s := newSession(t)
	hydrate(t, s, `{
		"id": "G", "class": "Graph",
		"lyphs": [{"id": "A", "layers": ["C"]}, {"id": "B", "layers": ["C"]}]
	}`)
	assert.Same(t, get(t, s, "A"), get(t, s, "C").Ref("layerIn"))
	assert.Contains(t, codes(s.Diagnostics()), errors.ErrCodeConsistency)
}

func TestCycleTerminates(t *testing.T) {
	s := newSession(t)
	hydrate(t, s, `{
		"id": "G", "class": "Graph",
		"nodes": [{"id": "n1", "hostedBy": {"id": "l1", "source": "n1", "hostedNodes": [{"id": "n1"}]}}]
	}`)

	n1, l1 := get(t, s, "n1"), get(t, s, "l1")
	assert.Same(t, l1, n1.Ref("hostedBy"))
	assert.Equal(t, []*model.Resource{n1}, l1.Refs("hostedNodes"))
	assert.Same(t, n1, l1.Ref("source"))
	assert.Equal(t, []*model.Resource{l1}, n1.Refs("sourceOf"))
}

func TestAssignRelationship(t *testing.T) {
	s := newSession(t)
	hydrate(t, s, `{
		"id": "G", "class": "Graph",
		"nodes": [{"id": "n1"}, {"id": "n2"}],
		"links": [{"id": "L", "source": "n1"}],
		"assign": [{"path": "$.links[*]", "value": {"target": "n2", "id": "ignored"}}]
	}`)

	l, n2 := get(t, s, "L"), get(t, s, "n2")
	assert.Same(t, n2, l.Ref("target"))
	assert.Equal(t, []*model.Resource{l}, n2.Refs("targetOf"))
	assert.Equal(t, "L", l.ID)
}

func TestAssignSkipsTemplates(t *testing.T) {
	s := newSession(t)
	hydrate(t, s, `{
		"id": "T", "class": "Lyph", "isTemplate": true,
		"layers": [{"id": "x"}],
		"assign": [{"path": "$.layers[*]", "value": {"angle": 5}}]
	}`)
	assert.Equal(t, 0.0, get(t, s, "x").Get("angle"))
}

func TestAssignInvalidPath(t *testing.T) {
	s := newSession(t)
	hydrate(t, s, `{
		"id": "g", "class": "Group",
		"nodes": [{"id": "a"}],
		"assign": [{"path": "nodes", "value": {"charge": 1}}, "junk"]
	}`)
	assert.Equal(t, 0.0, get(t, s, "a").Get("charge"))

	n := 0
	for _, c := range codes(s.Diagnostics()) {
		if c == errors.ErrCodeInvalidPath {
			n++
		}
	}
	assert.Equal(t, 2, n)
}

func TestInterpolateColor(t *testing.T) {
	s := newSession(t)
	hydrate(t, s, `{
		"id": "g", "class": "Group",
		"nodes": [{"id": "a"}, {"id": "b"}, {"id": "c"}],
		"lyphs": [
			{"id": "p", "layers": [{"id": "p1"}, {"id": "p2"}]},
			{"id": "q", "layers": [{"id": "q1"}, {"id": "q2"}]}
		],
		"interpolate": [
			{"path": "$.nodes", "color": {"scheme": "interpolateBlues"}},
			{"path": "$.lyphs[*].layers", "color": {"scheme": "Reds", "reversed": true}},
			{"path": "$.nodes", "color": {"scheme": "interpolateNope"}}
		]
	}`)

	blues := mustScale(t, "interpolateBlues")
	assert.Equal(t, blues(0), get(t, s, "a").Color())
	assert.Equal(t, blues(1.0/3), get(t, s, "b").Color())
	assert.Equal(t, blues(2.0/3), get(t, s, "c").Color())

	reds := mustScale(t, "Reds")
	assert.Equal(t, reds(1), get(t, s, "p1").Color())
	assert.Equal(t, reds(0.5), get(t, s, "p2").Color())
	assert.Equal(t, reds(1), get(t, s, "q1").Color())
	assert.Equal(t, reds(0.5), get(t, s, "q2").Color())

	assert.Contains(t, codes(s.Diagnostics()), errors.ErrCodeUnknownColorScheme)
}

func TestDuplicateDefinition(t *testing.T) {
	s := newSession(t)
	first := hydrate(t, s, `{"id": "n", "class": "Node", "charge": 1}`)
	second := hydrate(t, s, `{"id": "n", "class": "Node", "charge": 2}`)

	assert.Same(t, first, second)
	assert.Equal(t, 2.0, second.Get("charge"))
	assert.Contains(t, codes(s.Diagnostics()), errors.ErrCodeDuplicateID)
}

func TestInputNotMutated(t *testing.T) {
	s := newSession(t)
	raw := doc(t, `{"id": "L", "class": "Lyph", "layers": ["a"]}`)
	_, err := s.FromJSON(raw, "")
	require.NoError(t, err)

	assert.Equal(t, []any{"a"}, raw["layers"])
	_, hasBorder := raw["border"]
	assert.False(t, hasBorder)
}

func TestInterpolateLeavesInputIntact(t *testing.T) {
	s := newSession(t)
	raw := doc(t, `{
		"id": "g", "class": "Group",
		"extra": [{"k": 1}, {"k": 2}],
		"interpolate": [{"path": "$.extra", "offset": {"start": 0, "end": 1}}]
	}`)
	res, err := s.FromJSON(raw, "")
	require.NoError(t, err)

	assert.Equal(t, []any{map[string]any{"k": 1.0}, map[string]any{"k": 2.0}}, raw["extra"])

	extra, ok := res.Get("extra").([]any)
	require.True(t, ok)
	require.Len(t, extra, 2)
	assert.InDelta(t, 1.0/3, extra[0].(map[string]any)["offset"], 1e-9)
	assert.InDelta(t, 2.0/3, extra[1].(map[string]any)["offset"], 1e-9)
}

func TestRedefinitionWithOtherClass(t *testing.T) {
	s := newSession(t)
	hydrate(t, s, `{
		"id": "g", "class": "Group",
		"nodes": [{"id": "N1"}],
		"lyphs": [{"id": "Ly", "layers": [{"id": "N1"}]}]
	}`)

	assert.Contains(t, codes(s.Diagnostics()), errors.ErrCodeTypeMismatch)
	assert.Contains(t, codes(s.Diagnostics()), errors.ErrCodeDuplicateID)
}

func TestRedefinitionWithSameClassIsNotMismatch(t *testing.T) {
	s := newSession(t)
	hydrate(t, s, `{"id": "n", "class": "Node"}`)
	hydrate(t, s, `{"id": "n", "class": "Node", "charge": 2}`)

	assert.NotContains(t, codes(s.Diagnostics()), errors.ErrCodeTypeMismatch)
}

func TestLoad(t *testing.T) {
	meta, err := metamodel.Default()
	require.NoError(t, err)

	res, err := Load(meta, model.DefaultClasses(), doc(t, `{"id": "G", "nodes": [{"id": "a"}]}`), model.ClassGraph, log.New(io.Discard))
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, "G", res.Root.ID)
	assert.Equal(t, model.KindGroup, res.Root.Kind)
	assert.Equal(t, 2, res.Registry.Len())
	assert.Empty(t, res.Diagnostics)
}

func TestUndeclaredReferenceKeepsRawValue(t *testing.T) {
	reg, err := schema.Parse([]byte(`{"definitions": {
		"Resource": {"properties": {"id": {"type": "string"}}},
		"Node": {"extends": "Resource", "properties": {
			"ghost": {"$ref": "#/definitions/Ghost"},
			"peer": {"$ref": "#/definitions/Node", "relatedTo": "peer"}
		}}
	}}`))
	require.NoError(t, err)
	meta, err := metamodel.Build(reg)
	require.NoError(t, err)
	s, err := NewSession(meta, model.NewClasses(model.Class{Name: "Node", Kind: model.KindNode}), log.New(io.Discard))
	require.NoError(t, err)

	a := hydrate(t, s, `{"id": "a", "class": "Node", "ghost": "g1", "peer": "b"}`)
	assert.Equal(t, "g1", a.Get("ghost"))
	assert.False(t, s.Registry().Has("g1"))
	assert.Contains(t, codes(s.Diagnostics()), errors.ErrCodeSchema)

	b := get(t, s, "b")
	assert.Same(t, b, a.Ref("peer"))
	assert.Same(t, a, b.Ref("peer"))
}

package codec

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/brettbedarf/jsontree"
	"github.com/brettbedarf/jsontree/backends"
	"github.com/brettbedarf/jsontree/internal/mocks"
	"github.com/brettbedarf/jsontree/internal/util"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// decodeJSON parses a test document the way the transport does.
func decodeJSON(t *testing.T, doc string) any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(doc))
	dec.UseNumber()
	var v any
	require.NoError(t, dec.Decode(&v))
	return v
}

func newMemTree(t *testing.T) (*Tree, afero.Fs) {
	t.Helper()
	backend := backends.NewAferoBackend(afero.NewMemMapFs(), false)
	return New(backend, jsontree.Path{"rest-storage"}, WithLogger(zerolog.Nop())), backend.Fs()
}

func newOSTree(t *testing.T) (*Tree, string) {
	t.Helper()
	dir := t.TempDir()
	backend := backends.NewAferoBackend(afero.NewOsFs(), false)
	return New(backend, jsontree.ParseRoot(dir), WithLogger(zerolog.Nop())), dir
}

func TestTree_ConcreteLayout(t *testing.T) {
	t.Parallel()

	tree, dir := newOSTree(t)
	doc := decodeJSON(t, `{"name":"test_obj","age":43,"tags":["a","b"]}`)

	require.NoError(t, tree.Put(jsontree.Path{"root", "domain"}, doc, "anon"))

	want := map[string]string{
		"root/domain/__class_declaration__":      "CLASS\nOBJECT\n",
		"root/domain/name":                       "STRING\ntest_obj\n",
		"root/domain/age":                        "NUMBER\n43\n",
		"root/domain/tags/__class_declaration__": "CLASS\nARRAY\n",
		"root/domain/tags/0":                     "STRING\na\n",
		"root/domain/tags/1":                     "STRING\nb\n",
	}
	got := map[string]string{}
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		got[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	for _, d := range []string{"root/domain", "root/domain/tags"} {
		fi, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err)
		assert.True(t, fi.IsDir(), d)
	}

	v, err := tree.Get(jsontree.Path{"root", "domain"}, "anon")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name": "test_obj",
		"age":  json.Number("43"),
		"tags": []any{"a", "b"},
	}, v)
}

func TestTree_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  string
	}{
		{"null", `null`},
		{"bool", `true`},
		{"string", `"hello world"`},
		{"number", `-0.25e-3`},
		{"empty_object", `{}`},
		{"empty_array", `[]`},
		{"nested", `{"a":{"b":{"c":[null,false,"x",{"d":[]}]}}}`},
		{"top_level_array", `[1,"two",[3],{"four":4}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tree, _ := newMemTree(t)
			want := decodeJSON(t, tt.doc)
			path := jsontree.Path{"doc"}

			require.NoError(t, tree.Put(path, want, "anon"))
			got, err := tree.Get(path, "anon")
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestTree_ArrayLexicographicOrder(t *testing.T) {
	t.Parallel()

	tree, _ := newMemTree(t)
	arr := make([]any, 12)
	for i := range arr {
		arr[i] = json.Number(strconv.Itoa(i))
	}
	require.NoError(t, tree.Put(jsontree.Path{"arr"}, arr, "anon"))

	got, err := tree.Get(jsontree.Path{"arr"}, "anon")
	require.NoError(t, err)

	want := []any{}
	for _, s := range []string{"0", "1", "10", "11", "2", "3", "4", "5", "6", "7", "8", "9"} {
		want = append(want, json.Number(s))
	}
	assert.Equal(t, want, got)
}

func TestTree_ScalarOverwrite(t *testing.T) {
	t.Parallel()

	tree, fsys := newMemTree(t)
	path := jsontree.Path{"field"}
	require.NoError(t, tree.Put(path, "a long string value", "anon"))
	require.NoError(t, tree.Put(path, json.Number("1"), "anon"))

	data, err := afero.ReadFile(fsys, "rest-storage/field")
	require.NoError(t, err)
	assert.Equal(t, "NUMBER\n1\n", string(data))
}

func TestTree_PartialWriteFailure_RealFS(t *testing.T) {
	t.Parallel()

	tree, dir := newOSTree(t)
	// a regular file where a collection directory is needed
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blocked"), []byte("x"), 0o644))

	doc := decodeJSON(t, `{"keep":1,"blocked":{"inner":true},"also":"yes"}`)
	err := tree.WritePath(tree.Root(), doc)
	require.Error(t, err)

	var agg *jsontree.AggregateError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Errs, 1)

	var ioErr *jsontree.IOError
	require.ErrorAs(t, agg.Errs[0], &ioErr)
	assert.Equal(t, "mkdir", ioErr.Op)

	for name, content := range map[string]string{"keep": "NUMBER\n1\n", "also": "STRING\nyes\n"} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Equal(t, content, string(data))
	}
}

func TestTree_PartialWriteFailure_Mock(t *testing.T) {
	t.Parallel()

	m := &mocks.MockBackend{}
	root := jsontree.Path{"root"}
	diskFull := errors.New("disk full")

	m.On("EnsurePath", root).Return(nil)
	m.On("WriteField", root.Child("b"), mock.Anything).Return(diskFull)
	m.On("WriteField", mock.Anything, mock.Anything).Return(nil)

	tree := New(m, root, WithLogger(zerolog.Nop()))
	err := tree.Put(nil, map[string]any{"a": "x", "b": "y", "c": "z"}, "anon")

	var agg *jsontree.AggregateError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Errs, 1)
	assert.ErrorIs(t, agg.Errs[0], diskFull)

	m.AssertCalled(t, "WriteField", root.Child(jsontree.ClassFileName), jsontree.ClassObject.Record())
	m.AssertCalled(t, "WriteField", root.Child("a"), jsontree.Record{Tag: jsontree.TagString, Value: "x"})
	m.AssertCalled(t, "WriteField", root.Child("c"), jsontree.Record{Tag: jsontree.TagString, Value: "z"})
	m.AssertNumberOfCalls(t, "WriteField", 4)
}

func TestTree_NestedAggregate(t *testing.T) {
	t.Parallel()

	m := &mocks.MockBackend{}
	root := jsontree.Path{"root"}
	denied := errors.New("permission denied")

	m.On("EnsurePath", mock.Anything).Return(nil)
	m.On("WriteField", jsontree.Path{"root", "list", "1"}, mock.Anything).Return(denied)
	m.On("WriteField", mock.Anything, mock.Anything).Return(nil)

	tree := New(m, root, WithLogger(zerolog.Nop()))
	err := tree.WritePath(root, map[string]any{"list": []any{"a", "b"}, "x": nil})

	var outer *jsontree.AggregateError
	require.ErrorAs(t, err, &outer)
	require.Len(t, outer.Errs, 1)

	inner, ok := outer.Errs[0].(*jsontree.AggregateError)
	require.True(t, ok, "deep failure nests an aggregate")
	assert.Equal(t, jsontree.Path{"root", "list"}, inner.Path)
	assert.Len(t, outer.Leaves(), 1)
	assert.ErrorIs(t, err, denied)
}

func TestTree_ClassWriteFailureIsFatal(t *testing.T) {
	t.Parallel()

	m := &mocks.MockBackend{}
	root := jsontree.Path{"root"}

	m.On("EnsurePath", root).Return(nil)
	m.On("WriteField", root.Child(jsontree.ClassFileName), mock.Anything).Return(fs.ErrPermission)

	tree := New(m, root, WithLogger(zerolog.Nop()))
	err := tree.WritePath(root, []any{"a", "b"})
	require.Error(t, err)

	var agg *jsontree.AggregateError
	assert.False(t, errors.As(err, &agg), "must not be an aggregate")
	var ioErr *jsontree.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.ErrorIs(t, err, fs.ErrPermission)
	m.AssertNumberOfCalls(t, "WriteField", 1)
}

func TestTree_EnsurePathFailureIsFatal(t *testing.T) {
	t.Parallel()

	m := &mocks.MockBackend{}
	root := jsontree.Path{"root"}
	m.On("EnsurePath", root).Return(fs.ErrPermission)

	tree := New(m, root, WithLogger(zerolog.Nop()))
	err := tree.WritePath(root, map[string]any{"a": 1})

	var ioErr *jsontree.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "mkdir", ioErr.Op)
	m.AssertNotCalled(t, "WriteField", mock.Anything, mock.Anything)
}

func TestTree_PartialReadFailure(t *testing.T) {
	t.Parallel()

	m := &mocks.MockBackend{}
	root := jsontree.Path{"root"}

	m.On("Stat", root).Return(true, nil)
	m.On("ReadField", root.Child(jsontree.ClassFileName)).Return(jsontree.ClassObject.Record(), nil)
	m.On("List", root).Return([]string{"a", jsontree.ClassFileName, "b", "c"}, nil)
	m.On("Stat", root.Child("a")).Return(false, nil)
	m.On("Stat", root.Child("b")).Return(false, &jsontree.IOError{Op: "stat", Path: root.Child("b"), Err: fs.ErrNotExist})
	m.On("Stat", root.Child("c")).Return(false, nil)
	m.On("ReadField", root.Child("a")).Return(jsontree.Record{Tag: jsontree.TagNumber, Value: "1"}, nil)
	m.On("ReadField", root.Child("c")).Return(jsontree.Record{Tag: jsontree.TagNumber, Value: "3"}, nil)

	tree := New(m, root, WithLogger(zerolog.Nop()))
	v, err := tree.ReadPath(root)

	assert.Nil(t, v)
	var agg *jsontree.AggregateError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Errs, 1)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	// class record plus both surviving siblings
	m.AssertNumberOfCalls(t, "ReadField", 3)
	m.AssertCalled(t, "ReadField", root.Child("c"))
}

func TestTree_ListFailureIsPlain(t *testing.T) {
	t.Parallel()

	m := &mocks.MockBackend{}
	root := jsontree.Path{"root"}
	m.On("Stat", root).Return(true, nil)
	m.On("ReadField", root.Child(jsontree.ClassFileName)).Return(jsontree.ClassArray.Record(), nil)
	m.On("List", root).Return(nil, fs.ErrPermission)

	tree := New(m, root, WithLogger(zerolog.Nop()))
	_, err := tree.ReadPath(root)

	var ioErr *jsontree.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "list", ioErr.Op)
	var agg *jsontree.AggregateError
	assert.False(t, errors.As(err, &agg))
}

func TestTree_ReadMissing(t *testing.T) {
	t.Parallel()

	tree, _ := newMemTree(t)
	_, err := tree.Get(jsontree.Path{"nope"}, "anon")

	var ioErr *jsontree.IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "stat", ioErr.Op)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestTree_ClassFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		class *string
	}{
		{"missing", nil},
		{"corrupt", util.Pointer("CLASS\nLIST\n")},
		{"empty", util.Pointer("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			tree, fsys := newMemTree(t)
			require.NoError(t, tree.Put(jsontree.Path{"arr"}, []any{"a", "b"}, "anon"))

			classFile := "rest-storage/arr/" + jsontree.ClassFileName
			if tt.class == nil {
				require.NoError(t, fsys.Remove(classFile))
			} else {
				require.NoError(t, afero.WriteFile(fsys, classFile, []byte(*tt.class), 0o644))
			}

			got, err := tree.Get(jsontree.Path{"arr"}, "anon")
			require.NoError(t, err)
			assert.Equal(t, map[string]any{"0": "a", "1": "b"}, got)
		})
	}
}

func TestTree_LeafCorruptionFallback(t *testing.T) {
	t.Parallel()

	tree, fsys := newMemTree(t)
	require.NoError(t, tree.Put(nil, map[string]any{"n": json.Number("1"), "b": true}, "anon"))
	require.NoError(t, afero.WriteFile(fsys, "rest-storage/n", []byte("NUMBER\nforty-three\n"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "rest-storage/b", []byte("BOOL\nyes\n"), 0o644))

	got, err := tree.Get(nil, "anon")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"n": "forty-three", "b": "yes"}, got)
}

func TestTree_MemberRejections(t *testing.T) {
	t.Parallel()

	tree, fsys := newMemTree(t)
	err := tree.Put(jsontree.Path{"doc"}, map[string]any{
		"ok":    json.Number("1"),
		"..":    "escape",
		"a/b":   "nested",
		"weird": struct{}{},
	}, "anon")

	var agg *jsontree.AggregateError
	require.ErrorAs(t, err, &agg)
	assert.Len(t, agg.Errs, 3)
	assert.ErrorIs(t, err, jsontree.ErrInvalidPath)
	var unsupported *jsontree.UnsupportedValueError
	assert.ErrorAs(t, err, &unsupported)

	data, err := afero.ReadFile(fsys, "rest-storage/doc/ok")
	require.NoError(t, err)
	assert.Equal(t, "NUMBER\n1\n", string(data))

	_, err = fsys.Stat("rest-storage/doc/a")
	assert.True(t, os.IsNotExist(err))
}

func TestTree_ReservedKeyCollision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  any
	}{
		// The member overwrites the class record, and its value line is all
		// ReadClass looks at.
		{"names_a_class", "ARRAY", []any{"y"}},
		{"names_no_class", "z", map[string]any{"x": "y"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tree, fsys := newMemTree(t)
			require.NoError(t, tree.Put(jsontree.Path{"doc"}, map[string]any{
				jsontree.ClassFileName: tt.value,
				"x":                    "y",
			}, "anon"))

			data, err := afero.ReadFile(fsys, "rest-storage/doc/"+jsontree.ClassFileName)
			require.NoError(t, err)
			assert.Equal(t, "STRING\n"+tt.value+"\n", string(data))

			got, err := tree.Get(jsontree.Path{"doc"}, "anon")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTree_ReadCollectionClass(t *testing.T) {
	t.Parallel()

	tree, _ := newOSTree(t)
	require.NoError(t, tree.Put(jsontree.Path{"root", "domain"}, map[string]any{"name": "test_obj"}, "tilda"))

	class, err := tree.ReadClass(tree.Resolve(jsontree.Path{"root", "domain"}))
	require.NoError(t, err)
	assert.Equal(t, jsontree.ClassObject, class)
}

func TestTree_ReadField(t *testing.T) {
	t.Parallel()

	tree, _ := newOSTree(t)
	require.NoError(t, tree.Put(jsontree.Path{"root", "domain"}, map[string]any{"name": "test_obj"}, "tilda"))

	v, err := tree.ReadPath(tree.Resolve(jsontree.Path{"root", "domain", "name"}))
	require.NoError(t, err)
	assert.Equal(t, "test_obj", v)
}

func TestTree_ReadObject(t *testing.T) {
	t.Parallel()

	tree, _ := newOSTree(t)
	doc := decodeJSON(t, `{
		"name":"test_obj",
		"age": 43,
		"days_past_end":-78,
		"lat":48.9999,
		"long":-88.594938,
		"cant_even":true,
		"conquests":[
			"birth",
			{"event":"learned","activity":1,"children":["frank", {"nodeId":1}]},
			["data","is",true,"or",42]
		]
	}`)
	require.NoError(t, tree.Put(jsontree.Path{"root", "domain"}, doc, "tilda"))

	v, err := tree.ReadPath(tree.Resolve(jsontree.Path{"root", "domain"}))
	require.NoError(t, err)
	assert.Equal(t, doc, v)
}

package codec

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/brettbedarf/jsontree"
)

// WritePath stores value at path. Scalars overwrite any leaf already there.
// Objects and arrays create the directory and its class record first; a
// failure there is returned as is and no member is attempted. Every member is
// then written, and the failed ones are returned as a
// [*jsontree.AggregateError]. Members that were written stay written.
func (t *Tree) WritePath(path jsontree.Path, value any) error {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		return t.writeCollection(path, jsontree.ClassObject, keys, func(key string) any { return v[key] })
	case []any:
		keys := make([]string, len(v))
		for i := range v {
			keys[i] = strconv.Itoa(i)
		}
		return t.writeCollection(path, jsontree.ClassArray, keys, func(key string) any {
			i, _ := strconv.Atoi(key)
			return v[i]
		})
	}

	rec, err := encodeLeaf(value)
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	t.logger.Trace().Stringer("path", path).Stringer("tag", rec.Tag).Msg("WriteField")
	if err := t.backend.WriteField(path, rec); err != nil {
		return ioErr("write", path, err)
	}
	return nil
}

func (t *Tree) writeCollection(path jsontree.Path, class jsontree.Class, keys []string, member func(string) any) error {
	logger := t.logger.With().Stringer("path", path).Stringer("class", class).Logger()
	logger.Trace().Int("members", len(keys)).Msg("writeCollection")

	if err := t.backend.EnsurePath(path); err != nil {
		return ioErr("mkdir", path, err)
	}
	classPath := path.Child(jsontree.ClassFileName)
	if err := t.backend.WriteField(classPath, class.Record()); err != nil {
		return ioErr("write", classPath, err)
	}

	var errs []error
	for _, key := range keys {
		if err := jsontree.ValidateSegment(key); err != nil {
			errs = append(errs, fmt.Errorf("write %s: %w", path, err))
			continue
		}
		if err := t.WritePath(path.Child(key), member(key)); err != nil {
			logger.Debug().Err(err).Str("member", key).Msg("Member write failed")
			errs = append(errs, err)
		}
	}
	return jsontree.Aggregate("write", path, errs)
}

// ReadPath loads the value stored at path. A failed member read makes the
// whole read fail with a [*jsontree.AggregateError] listing every failed
// member; the values of the members that did read are discarded.
func (t *Tree) ReadPath(path jsontree.Path) (any, error) {
	isCollection, err := t.backend.Stat(path)
	if err != nil {
		return nil, ioErr("stat", path, err)
	}
	if !isCollection {
		rec, err := t.backend.ReadField(path)
		if err != nil {
			return nil, ioErr("read", path, err)
		}
		return t.decodeLeaf(path, rec), nil
	}

	class, err := t.ReadClass(path)
	if err != nil {
		t.logger.Debug().Err(err).Stringer("path", path).Msg("No usable class record, reading as object")
		class = jsontree.ClassObject
	}

	names, err := t.backend.List(path)
	if err != nil {
		return nil, ioErr("list", path, err)
	}
	names = slices.DeleteFunc(names, func(name string) bool {
		return name == jsontree.ClassFileName
	})

	if class == jsontree.ClassArray {
		return t.readArray(path, names)
	}
	return t.readObject(path, names)
}

// ReadClass reads the class record of the collection at path. Only the value
// line is inspected. An error means the record is missing, unreadable or
// names no known class.
func (t *Tree) ReadClass(path jsontree.Path) (jsontree.Class, error) {
	classPath := path.Child(jsontree.ClassFileName)
	rec, err := t.backend.ReadField(classPath)
	if err != nil {
		return jsontree.ClassObject, ioErr("read", classPath, err)
	}
	class, ok := jsontree.ParseClass(rec.Value)
	if !ok {
		return jsontree.ClassObject, fmt.Errorf("read %s: unknown class %q", classPath, rec.Value)
	}
	return class, nil
}

func (t *Tree) readObject(path jsontree.Path, names []string) (any, error) {
	obj := make(map[string]any, len(names))
	var errs []error
	for _, name := range names {
		v, err := t.ReadPath(path.Child(name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		obj[name] = v
	}
	if err := jsontree.Aggregate("read", path, errs); err != nil {
		return nil, err
	}
	return obj, nil
}

// readArray orders members by their names as strings, so "10" sorts before "2"
// once an array holds more than ten elements.
func (t *Tree) readArray(path jsontree.Path, names []string) (any, error) {
	slices.Sort(names)
	arr := make([]any, 0, len(names))
	var errs []error
	for _, name := range names {
		v, err := t.ReadPath(path.Child(name))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		arr = append(arr, v)
	}
	if err := jsontree.Aggregate("read", path, errs); err != nil {
		return nil, err
	}
	return arr, nil
}

package jsontree

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ClassFileName is the reserved member name holding a collection's class record.
// An object key with this exact name collides with it; that case is not guarded.
const ClassFileName = "__class_declaration__"

// Tag is the type tag stored on the first line of every leaf record.
type Tag uint8

const (
	// TagUnknown is any first line that is not one of the known tags. It is
	// never written; on read it decodes like [TagString].
	TagUnknown Tag = iota
	TagNull
	TagBool
	TagString
	TagNumber
	TagClass
)

var tagNames = [...]string{
	TagUnknown: "UNKNOWN",
	TagNull:    "NULL",
	TagBool:    "BOOL",
	TagString:  "STRING",
	TagNumber:  "NUMBER",
	TagClass:   "CLASS",
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", uint8(t))
}

// ParseTag maps the stored tag text onto a Tag. Unrecognized text yields
// TagUnknown and false.
func ParseTag(s string) (Tag, bool) {
	for t := TagNull; t <= TagClass; t++ {
		if tagNames[t] == s {
			return t, true
		}
	}
	return TagUnknown, false
}

// Class tells an object collection from an array collection on disk, where both
// are plain directories.
type Class uint8

const (
	ClassObject Class = iota
	ClassArray
)

func (c Class) String() string {
	switch c {
	case ClassObject:
		return "OBJECT"
	case ClassArray:
		return "ARRAY"
	}
	return fmt.Sprintf("Class(%d)", uint8(c))
}

// ParseClass maps the stored class text onto a Class.
func ParseClass(s string) (Class, bool) {
	switch s {
	case "OBJECT":
		return ClassObject, true
	case "ARRAY":
		return ClassArray, true
	}
	return ClassObject, false
}

// Record returns the class record written into every collection directory.
func (c Class) Record() Record {
	return Record{Tag: TagClass, Value: c.String()}
}

// Record is one persisted leaf: a type tag line followed by a value line.
type Record struct {
	Tag   Tag
	Value string
	// RawTag keeps the original first line when Tag is TagUnknown.
	RawTag string
}

var errUnknownTag = errors.New("cannot encode record with unknown tag")

// MarshalText renders the on-disk form "<TAG>\n<VALUE>\n".
func (r Record) MarshalText() ([]byte, error) {
	if r.Tag == TagUnknown || int(r.Tag) >= len(tagNames) {
		return nil, errUnknownTag
	}
	buf := make([]byte, 0, len(tagNames[r.Tag])+len(r.Value)+2)
	buf = append(buf, tagNames[r.Tag]...)
	buf = append(buf, '\n')
	buf = append(buf, r.Value...)
	buf = append(buf, '\n')
	return buf, nil
}

// ReadRecord reads exactly two lines from rd. Line terminators, "\n" or
// "\r\n", are stripped, so a value that itself ends in "\r" loses it. Anything
// after the second line is ignored. A short or empty input yields
// empty fields rather than an error, only genuine read failures are returned.
func ReadRecord(rd io.Reader) (Record, error) {
	br := bufio.NewReader(rd)
	tagLine, err := readLine(br)
	if err != nil {
		return Record{}, err
	}
	value, err := readLine(br)
	if err != nil {
		return Record{}, err
	}
	tag, ok := ParseTag(tagLine)
	rec := Record{Tag: tag, Value: value}
	if !ok {
		rec.RawTag = tagLine
	}
	return rec, nil
}

func readLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	return strings.TrimSuffix(line, "\r"), nil
}

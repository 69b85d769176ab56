package archive

import (
	"errors"
	"strings"
	"testing"

	"github.com/go-logr/logr/funcr"

	"skelpack/internal/codec"
)

func TestScalarRoundTrip(t *testing.T) {
	for _, endian := range []codec.Endianness{codec.LittleEndian, codec.BigEndian, Native} {
		t.Run(endian.String(), func(t *testing.T) {
			ms := NewMemoryStream(nil)
			o := NewOArchive(ms, endian)
			o.WriteUint8(0xab)
			o.WriteBool(true)
			o.WriteUint16(0x1234)
			o.WriteInt16(-2)
			o.WriteUint32(0xdeadbeef)
			o.WriteInt32(-7)
			o.WriteUint64(0x0102030405060708)
			o.WriteFloat32(3.5)
			o.WriteString("hips")
			o.WriteCString("tag")
			if err := o.Err(); err != nil {
				t.Fatal(err)
			}

			ms.Seek(0, 0)
			i := NewIArchive(ms)
			if i.Endianness() != endian {
				t.Fatalf("endianness = %v, want %v", i.Endianness(), endian)
			}
			if v := i.ReadUint8(); v != 0xab {
				t.Errorf("uint8 = %#x", v)
			}
			if !i.ReadBool() {
				t.Error("bool = false")
			}
			if v := i.ReadUint16(); v != 0x1234 {
				t.Errorf("uint16 = %#x", v)
			}
			if v := i.ReadInt16(); v != -2 {
				t.Errorf("int16 = %d", v)
			}
			if v := i.ReadUint32(); v != 0xdeadbeef {
				t.Errorf("uint32 = %#x", v)
			}
			if v := i.ReadInt32(); v != -7 {
				t.Errorf("int32 = %d", v)
			}
			if v := i.ReadUint64(); v != 0x0102030405060708 {
				t.Errorf("uint64 = %#x", v)
			}
			if v := i.ReadFloat32(); v != 3.5 {
				t.Errorf("float32 = %v", v)
			}
			if v := i.ReadString(); v != "hips" {
				t.Errorf("string = %q", v)
			}
			if v := i.ReadCString(16); v != "tag" {
				t.Errorf("cstring = %q", v)
			}
			if err := i.Err(); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestByteLayout(t *testing.T) {
	little := NewMemoryStream(nil)
	NewOArchive(little, codec.LittleEndian).WriteUint32(0x01020304)
	big := NewMemoryStream(nil)
	NewOArchive(big, codec.BigEndian).WriteUint32(0x01020304)

	if got := little.Bytes(); string(got) != "\x01\x04\x03\x02\x01" {
		t.Errorf("little = %v", got)
	}
	if got := big.Bytes(); string(got) != "\x00\x01\x02\x03\x04" {
		t.Errorf("big = %v", got)
	}
}

func TestReadPastEnd(t *testing.T) {
	ms := NewMemoryStream([]byte{1, 0x10})
	i := NewIArchive(ms)
	if v := i.ReadUint32(); v != 0 {
		t.Fatalf("short read = %d, want 0", v)
	}
	if i.Err() == nil {
		t.Fatal("expected error")
	}
	if v := i.ReadUint8(); v != 0 {
		t.Fatalf("read after error = %d, want 0", v)
	}
}

func TestInvalidEndiannessTag(t *testing.T) {
	i := NewIArchive(NewMemoryStream([]byte{7}))
	if !errors.Is(i.Err(), ErrCorrupt) {
		t.Fatalf("err = %v, want ErrCorrupt", i.Err())
	}
}

func TestReadCountRejectsOversized(t *testing.T) {
	ms := NewMemoryStream(nil)
	o := NewOArchive(ms, codec.LittleEndian)
	o.WriteInt32(1 << 30)
	ms.Seek(0, 0)
	i := NewIArchive(ms)
	if n := i.ReadCount(4); n != 0 || !errors.Is(i.Err(), ErrCorrupt) {
		t.Fatalf("ReadCount = %d, err = %v", n, i.Err())
	}
}

type record struct {
	version uint32
	value   int32
}

func (p *record) Tag() string      { return "record" }
func (p *record) Version() uint32  { return p.version }
func (p *record) Save(a *OArchive) { a.WriteInt32(p.value) }
func (p *record) Load(a *IArchive, version uint32) error {
	*p = record{}
	if version != 2 {
		return RejectVersion(a, p.Tag(), version, 2)
	}
	p.version = version
	p.value = a.ReadInt32()
	return nil
}

func TestSaveLoadObject(t *testing.T) {
	ms := NewMemoryStream(nil)
	o := NewOArchive(ms, codec.BigEndian)
	if err := Save(o, &record{version: 2, value: 99}); err != nil {
		t.Fatal(err)
	}
	ms.Seek(0, 0)
	i := NewIArchive(ms)
	if !i.TestTag("record") {
		t.Fatal("TestTag(record) = false")
	}
	if i.TestTag("other") {
		t.Fatal("TestTag(other) = true")
	}
	var p record
	if err := Load(i, &p); err != nil {
		t.Fatal(err)
	}
	if p.value != 99 {
		t.Fatalf("value = %d, want 99", p.value)
	}
}

func TestLoadUnsupportedVersionLogs(t *testing.T) {
	ms := NewMemoryStream(nil)
	o := NewOArchive(ms, Native)
	Save(o, &record{version: 9, value: 5})
	ms.Seek(0, 0)

	var logged []string
	log := funcr.New(func(prefix, args string) { logged = append(logged, args) }, funcr.Options{})
	i := NewIArchive(ms, WithLogger(log))
	p := record{value: 42}
	err := Load(i, &p)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("err = %v, want ErrUnsupportedVersion", err)
	}
	if p != (record{}) {
		t.Fatalf("object not reset: %+v", p)
	}
	if len(logged) != 1 || !strings.Contains(logged[0], "unsupported archive version") {
		t.Fatalf("log = %v", logged)
	}
}

func TestLoadTagMismatch(t *testing.T) {
	ms := NewMemoryStream(nil)
	o := NewOArchive(ms, Native)
	o.WriteCString("something-else")
	o.WriteUint32(1)
	ms.Seek(0, 0)
	var p record
	if err := Load(NewIArchive(ms), &p); !errors.Is(err, ErrTagMismatch) {
		t.Fatalf("err = %v, want ErrTagMismatch", err)
	}
}

func TestFileStream(t *testing.T) {
	path := t.TempDir() + "/record.bin"
	out, err := CreateFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := Save(NewOArchive(out, codec.LittleEndian), &record{version: 2, value: -3}); err != nil {
		t.Fatal(err)
	}
	if out.Tell() != out.Size() {
		t.Fatalf("tell %d != size %d", out.Tell(), out.Size())
	}
	out.Close()

	in, err := OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer in.Close()
	var p record
	if err := Load(NewIArchive(in), &p); err != nil {
		t.Fatal(err)
	}
	if p.value != -3 {
		t.Fatalf("value = %d", p.value)
	}
}

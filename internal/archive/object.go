package archive

import "fmt"

// Encoder is implemented by every type that can be written to an archive.
type Encoder interface {
	// Tag identifies the type in the stream.
	Tag() string
	// Version is the format version written by Save.
	Version() uint32
	// Save writes the object body.
	Save(a *OArchive)
}

// Decoder is implemented by every type that can be read from an archive.
// Load receives the version found in the stream and must leave the object
// empty when it returns an error.
type Decoder interface {
	Tag() string
	Load(a *IArchive, version uint32) error
}

// Save writes tag, version and body of e.
func Save(a *OArchive, e Encoder) error {
	a.WriteCString(e.Tag())
	a.WriteUint32(e.Version())
	e.Save(a)
	if err := a.Err(); err != nil {
		return fmt.Errorf("archive: save %s: %w", e.Tag(), err)
	}
	return nil
}

// Load checks the tag, reads the version and decodes d.
func Load(a *IArchive, d Decoder) error {
	if err := a.Err(); err != nil {
		return err
	}
	tag := a.ReadCString(maxTagLen)
	if err := a.Err(); err != nil {
		return err
	}
	if tag != d.Tag() {
		err := fmt.Errorf("%w: found %q, want %q", ErrTagMismatch, tag, d.Tag())
		a.log.Error(err, "archive load rejected", "tag", d.Tag())
		return err
	}
	version := a.ReadUint32()
	if err := a.Err(); err != nil {
		return err
	}
	if err := d.Load(a, version); err != nil {
		return err
	}
	if err := a.Err(); err != nil {
		return fmt.Errorf("archive: load %s: %w", d.Tag(), err)
	}
	return nil
}

// RejectVersion logs an unsupported version and returns the matching error.
// Decoders call it before touching the body.
func RejectVersion(a *IArchive, tag string, got, want uint32) error {
	err := fmt.Errorf("%w: %s version %d (supported: %d)", ErrUnsupportedVersion, tag, got, want)
	a.log.Error(err, "unsupported archive version", "tag", tag, "version", got, "supported", want)
	return err
}

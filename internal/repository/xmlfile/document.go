package xmlfile

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prn-tf/freshdeal/internal/repository"
)

func emptyDocument(root string) []byte {
	return []byte(xml.Header + "<" + root + ">\n</" + root + ">\n")
}

// decodeDocument reads every <item> child of the <root> element.
func decodeDocument[T any](data []byte, l layout) ([]T, error) {
	d := xml.NewDecoder(bytes.NewReader(data))

	var items []T
	depth := 0
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", repository.ErrCorrupt, l.file, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if t.Name.Local != l.root {
					return nil, fmt.Errorf("%w: %s: unexpected root <%s>", repository.ErrCorrupt, l.file, t.Name.Local)
				}
				depth++
				continue
			}
			if t.Name.Local != l.item {
				if err := d.Skip(); err != nil {
					return nil, fmt.Errorf("%w: %s: %v", repository.ErrCorrupt, l.file, err)
				}
				continue
			}
			var item T
			if err := d.DecodeElement(&item, &t); err != nil {
				return nil, fmt.Errorf("%w: %s: %v", repository.ErrCorrupt, l.file, err)
			}
			items = append(items, item)
		case xml.EndElement:
			depth--
		}
	}

	if depth != 0 {
		return nil, fmt.Errorf("%w: %s: document is not closed", repository.ErrCorrupt, l.file)
	}
	return items, nil
}

// encodeDocument renders items as a complete indented document.
func encodeDocument[T any](items []T, l layout) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := xml.StartElement{Name: xml.Name{Local: l.root}}
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}
	for _, item := range items {
		if err := enc.EncodeElement(item, xml.StartElement{Name: xml.Name{Local: l.item}}); err != nil {
			return nil, err
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// appendRecord inserts item immediately before the closing root tag of data.
func appendRecord[T any](data []byte, item T, l layout) ([]byte, error) {
	closing := []byte("</" + l.root + ">")
	idx := bytes.LastIndex(data, closing)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s: missing closing </%s>", repository.ErrCorrupt, l.file, l.root)
	}

	var rec bytes.Buffer
	enc := xml.NewEncoder(&rec)
	enc.Indent("  ", "  ")
	if err := enc.EncodeElement(item, xml.StartElement{Name: xml.Name{Local: l.item}}); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}

	head := bytes.TrimRight(data[:idx], " \t\r\n")
	out := make([]byte, 0, len(data)+rec.Len()+2)
	out = append(out, head...)
	out = append(out, '\n')
	out = append(out, rec.Bytes()...)
	out = append(out, '\n')
	out = append(out, data[idx:]...)
	return out, nil
}

// writeFileAtomic replaces path with data via a synced temporary file and a rename.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

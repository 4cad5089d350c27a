package matfile

import (
	"encoding/binary"
	"errors"
	"io"
	"math"
)

// MAT-4 matrix header: five little- or big-endian int32 values.
//
//	MOPT  type code (M: byte order, O: zero, P: precision, T: matrix class)
//	mrows, ncols
//	imagf non-zero when an imaginary part follows the real part
//	namlen name length including the trailing NUL
type matHeader struct {
	mopt   int32
	mrows  int32
	ncols  int32
	imagf  int32
	namlen int32
}

// element sizes per MAT-4 precision digit.
var precisionSize = [...]int{8, 4, 4, 2, 2, 1}

const maxNameLen = 256

// readBinary decodes a MAT-4 stream. The committed flag reports whether
// the first matrix header framed correctly: once it has, later failures
// mean a corrupt binary file rather than a candidate text file.
func readBinary(r io.ReadSeeker, o *options) (raw []rawMatrix, committed bool, err error) {
	for {
		var buf [20]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			if err == io.EOF && committed {
				return raw, committed, nil
			}
			if committed {
				return nil, committed, formatErr("truncated matrix header")
			}
			return nil, committed, formatErr("not a MAT-4 file")
		}

		hdr, order, err := parseHeader(buf)
		if err != nil {
			return nil, committed, err
		}
		committed = true

		m, err := readMatrix(r, hdr, order, o)
		if errors.Is(err, errSkipped) {
			continue
		}
		if err != nil {
			return nil, committed, err
		}
		raw = append(raw, m)
	}
}

// parseHeader decodes the five header words, trying little-endian first
// and big-endian when the MOPT code only makes sense the other way.
func parseHeader(buf [20]byte) (matHeader, binary.ByteOrder, error) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		hdr := matHeader{
			mopt:   int32(order.Uint32(buf[0:4])),
			mrows:  int32(order.Uint32(buf[4:8])),
			ncols:  int32(order.Uint32(buf[8:12])),
			imagf:  int32(order.Uint32(buf[12:16])),
			namlen: int32(order.Uint32(buf[16:20])),
		}
		if err := validateHeader(hdr, order); err == nil {
			return hdr, order, nil
		}
	}
	return matHeader{}, nil, formatErr("invalid matrix header")
}

func validateHeader(hdr matHeader, order binary.ByteOrder) error {
	if hdr.mopt < 0 || hdr.mopt > 4999 {
		return formatErr("type code %d out of range", hdr.mopt)
	}
	m := hdr.mopt / 1000 % 10
	big := order == binary.BigEndian
	if (m != 0 && m != 1) || (m == 1) != big {
		return formatErr("byte-order digit %d", m)
	}
	if hdr.mopt/100%10 != 0 {
		return formatErr("reserved header digit set in %d", hdr.mopt)
	}
	if p := hdr.mopt / 10 % 10; int(p) >= len(precisionSize) {
		return formatErr("unsupported precision %d", p)
	}
	if t := hdr.mopt % 10; t != 0 && t != 1 {
		return formatErr("unsupported matrix class %d", t)
	}
	if hdr.mrows < 0 || hdr.ncols < 0 {
		return formatErr("negative matrix shape %dx%d", hdr.mrows, hdr.ncols)
	}
	if hdr.imagf != 0 {
		return formatErr("complex matrices are not supported")
	}
	if hdr.namlen < 1 || hdr.namlen > maxNameLen {
		return formatErr("matrix name length %d", hdr.namlen)
	}
	return nil
}

func readMatrix(r io.ReadSeeker, hdr matHeader, order binary.ByteOrder, o *options) (rawMatrix, error) {
	nameBuf := make([]byte, hdr.namlen)
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return rawMatrix{}, formatErr("truncated matrix name")
	}
	name := string(nameBuf)
	if i := len(name) - 1; name[i] == 0 {
		name = name[:i]
	}

	prec := int(hdr.mopt / 10 % 10)
	text := hdr.mopt%10 == 1
	n := int(hdr.mrows) * int(hdr.ncols)
	size := precisionSize[prec]

	m := rawMatrix{
		name:     name,
		rows:     int(hdr.mrows),
		cols:     int(hdr.ncols),
		text:     text,
		colMajor: true,
	}

	if o.constantsOnly && isDatasetPast1(name) {
		// Performance hint: the caller only wants dataset 1, so the
		// payload is seeked past without reading.
		if _, err := r.Seek(int64(n*size), io.SeekCurrent); err != nil {
			return rawMatrix{}, formatErr("truncated matrix %s", name)
		}
		return rawMatrix{}, errSkipped
	}

	data, err := readElements(r, n, prec, order)
	if err != nil {
		return rawMatrix{}, formatErr("matrix %s: %v", name, err)
	}
	if text {
		m.chars = make([]byte, n)
		for i, v := range data {
			m.chars[i] = byte(int64(v))
		}
	} else {
		m.data = data
	}
	return m, nil
}

// errSkipped is an internal signal for matrices omitted by constants-only
// loads; it never escapes readBinary.
var errSkipped = errors.New("matfile: matrix skipped")

func readElements(r io.Reader, n, prec int, order binary.ByteOrder) ([]float64, error) {
	size := precisionSize[prec]
	buf := make([]byte, n*size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.New("truncated payload")
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		b := buf[i*size:]
		switch prec {
		case 0:
			out[i] = math.Float64frombits(order.Uint64(b))
		case 1:
			out[i] = float64(math.Float32frombits(order.Uint32(b)))
		case 2:
			out[i] = float64(int32(order.Uint32(b)))
		case 3:
			out[i] = float64(int16(order.Uint16(b)))
		case 4:
			out[i] = float64(order.Uint16(b))
		case 5:
			out[i] = float64(b[0])
		}
	}
	return out, nil
}

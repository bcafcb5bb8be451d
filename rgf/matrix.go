package rgf

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"github.com/YuminosukeSato/higgsml/core/table"
	"github.com/YuminosukeSato/higgsml/pkg/errors"
)

// WriteMatrix writes t as space-delimited rows in the table's column order.
// Values are written with the shortest representation that round-trips.
func WriteMatrix(w io.Writer, t *table.EventTable) error {
	bw := bufio.NewWriter(w)
	m := t.Dense()
	if m.IsEmpty() {
		return bw.Flush()
	}
	rows, cols := m.Dims()
	buf := make([]byte, 0, 32*cols)
	for i := 0; i < rows; i++ {
		buf = buf[:0]
		for j, v := range m.RawRowView(i) {
			if j > 0 {
				buf = append(buf, ' ')
			}
			buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
		}
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteVector writes one value per line.
func WriteVector(w io.Writer, v []float64) error {
	bw := bufio.NewWriter(w)
	buf := make([]byte, 0, 32)
	for _, x := range v {
		buf = strconv.AppendFloat(buf[:0], x, 'g', -1, 64)
		buf = append(buf, '\n')
		if _, err := bw.Write(buf); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// EncodeLabels maps targets to the ±1 labels the learner expects: positive
// values become +1, everything else −1.
func EncodeLabels(target []float64) []float64 {
	out := make([]float64, len(target))
	for i, t := range target {
		if t > 0 {
			out[i] = 1
		} else {
			out[i] = -1
		}
	}
	return out
}

// WriteMatrixFile writes t to path.
func WriteMatrixFile(path string, t *table.EventTable) error {
	return writeFile(path, func(w io.Writer) error { return WriteMatrix(w, t) })
}

// WriteVectorFile writes v to path.
func WriteVectorFile(path string, v []float64) error {
	return writeFile(path, func(w io.Writer) error { return WriteVector(w, v) })
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "rgf: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "rgf: close %s", path)
		}
	}()
	return errors.Wrapf(write(f), "rgf: write %s", path)
}

package num

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// PCA projects the rows of x onto their first q principal components.
// The input is centered internally; the projection is returned as an
// n x q matrix.
func PCA(x mat.Matrix, q int) (*mat.Dense, error) {
	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return nil, errors.New("num: principal component decomposition failed")
	}
	var vec mat.Dense
	pc.VectorsTo(&vec)
	n, d := x.Dims()
	if q > d {
		return nil, errors.Errorf("num: cannot project %d dims onto %d components", d, q)
	}
	mean := make([]float64, d)
	for j := 0; j < d; j++ {
		var sum float64
		for i := 0; i < n; i++ {
			sum += x.At(i, j)
		}
		mean[j] = sum / float64(n)
	}
	centered := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			centered.Set(i, j, x.At(i, j)-mean[j])
		}
	}
	proj := mat.NewDense(n, q, nil)
	proj.Mul(centered, vec.Slice(0, d, 0, q))
	return proj, nil
}

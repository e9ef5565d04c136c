package propagate_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/mat"

	"github.com/phys-praktikum/fplab/internal/propagate"
	"github.com/phys-praktikum/fplab/internal/symbolic"
)

// V = pi r^2 h, the classic lab example.
func cylinderVolume() symbolic.Expr {
	return symbolic.Mul(
		symbolic.Num(math.Pi),
		symbolic.Pow(symbolic.Var("r"), symbolic.Num(2)),
		symbolic.Var("h"),
	)
}

// (r, theta) as functions of (x, y).
func polarMap() []symbolic.Expr {
	return []symbolic.Expr{
		symbolic.Sqrt(symbolic.Add(
			symbolic.Pow(symbolic.Var("x"), symbolic.Num(2)),
			symbolic.Pow(symbolic.Var("y"), symbolic.Num(2)),
		)),
		symbolic.Atan2(symbolic.Var("y"), symbolic.Var("x")),
	}
}

func corr2(rho float64) *mat.SymDense {
	return mat.NewSymDense(2, []float64{1, rho, rho, 1})
}

var _ = Describe("Uncorrelated", func() {
	It("propagates the cylinder volume example", func() {
		ms := []propagate.Measurement{
			{Name: "r", Value: 2, Sigma: 0.05},
			{Name: "h", Value: 3, Sigma: 0.05},
		}
		res, err := propagate.Uncorrelated(cylinderVolume(), ms)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Value).To(BeNumerically("~", 37.699, 1e-3))
		Expect(res.Sigma).To(BeNumerically("~", 1.987, 1e-3))
	})

	It("fails on an unbound free variable", func() {
		ms := []propagate.Measurement{{Name: "r", Value: 2, Sigma: 0.05}}
		_, err := propagate.Uncorrelated(cylinderVolume(), ms)
		Expect(err).To(MatchError(symbolic.ErrUnboundVar))
	})

	It("rejects duplicate variables", func() {
		ms := []propagate.Measurement{
			{Name: "r", Value: 2, Sigma: 0.05},
			{Name: "r", Value: 2, Sigma: 0.05},
		}
		_, err := propagate.Uncorrelated(cylinderVolume(), ms)
		Expect(err).To(MatchError(propagate.ErrDuplicateVariable))
	})
})

var _ = Describe("Correlated", func() {
	var (
		x  = symbolic.Var("x")
		y  = symbolic.Var("y")
		ps = []propagate.Point{
			{Name: "x", Value: 2},
			{Name: "y", Value: 5},
		}
	)

	It("matches the analytic form for a sum", func() {
		cov, err := propagate.FromCorrelation([]float64{0.3, 0.4}, corr2(0.25))
		Expect(err).NotTo(HaveOccurred())
		res, err := propagate.Correlated(symbolic.Add(x, y), ps, cov)
		Expect(err).NotTo(HaveOccurred())
		want := math.Sqrt(0.09 + 0.16 + 2*0.25*0.3*0.4)
		Expect(res.Sigma).To(BeNumerically("~", want, 1e-12))
	})

	It("matches the analytic form for a difference", func() {
		cov, err := propagate.FromCorrelation([]float64{0.3, 0.4}, corr2(0.25))
		Expect(err).NotTo(HaveOccurred())
		res, err := propagate.Correlated(symbolic.Sub(x, y), ps, cov)
		Expect(err).NotTo(HaveOccurred())
		want := math.Sqrt(0.09 + 0.16 - 2*0.25*0.3*0.4)
		Expect(res.Sigma).To(BeNumerically("~", want, 1e-12))
	})

	It("matches the analytic relative uncertainty for a product", func() {
		cov, err := propagate.FromCorrelation([]float64{0.1, 0.2}, corr2(0.5))
		Expect(err).NotTo(HaveOccurred())
		res, err := propagate.Correlated(symbolic.Mul(x, y), ps, cov)
		Expect(err).NotTo(HaveOccurred())
		want := math.Sqrt(math.Pow(0.1/2, 2) + math.Pow(0.2/5, 2) + 2*0.5*0.1*0.2/(2*5))
		Expect(res.Sigma / res.Value).To(BeNumerically("~", want, 1e-12))
	})

	It("reduces to the uncorrelated propagator for a diagonal covariance", func() {
		ms := []propagate.Measurement{
			{Name: "r", Value: 2, Sigma: 0.05},
			{Name: "h", Value: 3, Sigma: 0.05},
		}
		plain, err := propagate.Uncorrelated(cylinderVolume(), ms)
		Expect(err).NotTo(HaveOccurred())
		full, err := propagate.Correlated(cylinderVolume(), propagate.PointsOf(ms), propagate.Diagonal(ms))
		Expect(err).NotTo(HaveOccurred())
		Expect(full.Sigma).To(BeNumerically("~", plain.Sigma, 1e-12))
		Expect(full.Value).To(Equal(plain.Value))
	})

	It("grows the cylinder uncertainty under full correlation", func() {
		ms := []propagate.Measurement{
			{Name: "r", Value: 2, Sigma: 0.05},
			{Name: "h", Value: 3, Sigma: 0.05},
		}
		plain, err := propagate.Uncorrelated(cylinderVolume(), ms)
		Expect(err).NotTo(HaveOccurred())
		cov, err := propagate.FromCorrelation([]float64{0.05, 0.05}, corr2(1))
		Expect(err).NotTo(HaveOccurred())
		full, err := propagate.Correlated(cylinderVolume(), propagate.PointsOf(ms), cov)
		Expect(err).NotTo(HaveOccurred())
		Expect(full.Sigma).To(BeNumerically("~", 2.513, 1e-3))
		Expect(full.Sigma).To(BeNumerically(">", plain.Sigma))
	})

	It("surfaces a negative radicand instead of truncating", func() {
		bad := mat.NewSymDense(2, []float64{1, 5, 5, 1})
		_, err := propagate.Correlated(symbolic.Sub(x, y), ps, bad)
		Expect(err).To(MatchError(propagate.ErrNegativeVariance))
	})

	It("rejects a covariance of the wrong dimension", func() {
		_, err := propagate.Correlated(symbolic.Add(x, y), ps, mat.NewSymDense(3, nil))
		Expect(err).To(MatchError(propagate.ErrDimensionMismatch))
	})
})

var _ = Describe("Transform", func() {
	point := []propagate.Point{
		{Name: "x", Value: 3},
		{Name: "y", Value: 4},
	}

	It("agrees with the correlated propagator for a single output", func() {
		cov, err := propagate.FromCorrelation([]float64{0.1, 0.2}, corr2(0.3))
		Expect(err).NotTo(HaveOccurred())
		u, err := propagate.Transform(polarMap()[:1], point, cov)
		Expect(err).NotTo(HaveOccurred())
		res, err := propagate.Correlated(polarMap()[0], point, cov)
		Expect(err).NotTo(HaveOccurred())
		Expect(u.At(0, 0)).To(BeNumerically("~", res.Sigma*res.Sigma, 1e-12))
	})

	It("couples polar outputs through shared inputs", func() {
		ms := []propagate.Measurement{
			{Name: "x", Value: 3, Sigma: 0.1},
			{Name: "y", Value: 4, Sigma: 0.2},
		}
		u, err := propagate.Transform(polarMap(), point, propagate.Diagonal(ms))
		Expect(err).NotTo(HaveOccurred())
		// U01 = x y (sigma_y^2 - sigma_x^2) / r^3 at (3,4).
		want := 3 * 4 * (0.04 - 0.01) / 125
		Expect(u.At(0, 1)).To(BeNumerically("~", want, 1e-12))
		Expect(u.At(1, 0)).To(Equal(u.At(0, 1)))
	})

	It("keeps the radial variance exact for isotropic inputs", func() {
		ms := []propagate.Measurement{
			{Name: "x", Value: 3, Sigma: 0.05},
			{Name: "y", Value: 4, Sigma: 0.05},
		}
		cov := propagate.Diagonal(ms)
		u, err := propagate.Transform(polarMap(), point, cov)
		Expect(err).NotTo(HaveOccurred())
		res, err := propagate.Correlated(polarMap()[0], point, cov)
		Expect(err).NotTo(HaveOccurred())
		Expect(u.At(0, 0)).To(BeNumerically("~", res.Sigma*res.Sigma, 1e-12))
		Expect(res.Sigma).To(BeNumerically("~", 0.05, 1e-9))
		// The r and theta gradients are orthogonal, so isotropic input
		// covariance leaves the outputs uncoupled.
		Expect(u.At(0, 1)).To(BeNumerically("~", 0, 1e-15))
	})

	It("fails loudly at the polar singularity", func() {
		origin := []propagate.Point{
			{Name: "x", Value: 0},
			{Name: "y", Value: 0},
		}
		_, err := propagate.Transform(polarMap(), origin, mat.NewSymDense(2, nil))
		Expect(err).To(MatchError(symbolic.ErrDomain))
	})

	It("rejects a covariance of the wrong dimension", func() {
		_, err := propagate.Transform(polarMap(), point, mat.NewSymDense(4, nil))
		Expect(err).To(MatchError(propagate.ErrDimensionMismatch))
	})
})

var _ = Describe("SigmaFormula", func() {
	It("evaluates identically under identical substitutions", func() {
		sf := propagate.SigmaFormula(cylinderVolume(), []string{"r", "h"})
		env := symbolic.Env{"r": 2, "h": 3, "sigma_r": 0.05, "sigma_h": 0.05}
		first, err := sf.Eval(env)
		Expect(err).NotTo(HaveOccurred())
		second, err := sf.Eval(env)
		Expect(err).NotTo(HaveOccurred())
		Expect(second).To(Equal(first))

		res, err := propagate.Uncorrelated(cylinderVolume(), []propagate.Measurement{
			{Name: "r", Value: 2, Sigma: 0.05},
			{Name: "h", Value: 3, Sigma: 0.05},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(first).To(BeNumerically("~", res.Sigma, 1e-12))
	})

	It("names the sigma variables after the inputs", func() {
		sf := propagate.SigmaFormula(cylinderVolume(), []string{"r", "h"})
		Expect(sf.String()).To(ContainSubstring("sigma_r"))
		Expect(sf.String()).To(ContainSubstring("sigma_h"))
	})
})

var _ = Describe("FromCorrelation", func() {
	It("rejects coefficients outside [-1, 1]", func() {
		_, err := propagate.FromCorrelation([]float64{1, 1}, corr2(1.5))
		Expect(err).To(MatchError(propagate.ErrBadCorrelation))
	})

	It("rejects a non-unit diagonal", func() {
		bad := mat.NewSymDense(2, []float64{2, 0, 0, 1})
		_, err := propagate.FromCorrelation([]float64{1, 1}, bad)
		Expect(err).To(MatchError(propagate.ErrBadCorrelation))
	})

	It("rejects negative sigmas", func() {
		_, err := propagate.FromCorrelation([]float64{-1, 1}, corr2(0))
		Expect(err).To(MatchError(propagate.ErrNegativeSigma))
	})
})

package geom

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-9

func vecNear(a, b r3.Vec, eps float64) bool {
	return r3.Norm(r3.Sub(a, b)) <= eps
}

func angleNear(a, b, eps float64) bool {
	return math.Abs(NormalizeDegrees(a-b)) <= eps
}

func TestNewFrameZUp(t *testing.T) {
	f := MustFrame(r3.Vec{Z: 1})

	if !vecNear(f.Forward, r3.Vec{X: 1}, tol) {
		t.Errorf("forward = %v, want +X", f.Forward)
	}
	if !vecNear(f.Side, r3.Vec{Y: 1}, tol) {
		t.Errorf("side = %v, want +Y", f.Side)
	}
	if !vecNear(f.Up, r3.Vec{Z: 1}, tol) {
		t.Errorf("up = %v, want +Z", f.Up)
	}
}

func TestNewFrameOrthonormal(t *testing.T) {
	ups := []r3.Vec{
		{Z: 1},
		{Y: 1},
		{X: 1},
		{X: 1, Y: 2, Z: 3},
		{Z: -4},
	}

	for _, u := range ups {
		f, err := NewFrame(u)
		if err != nil {
			t.Fatalf("NewFrame(%v): %v", u, err)
		}
		for _, v := range []r3.Vec{f.Forward, f.Side, f.Up} {
			if math.Abs(r3.Norm(v)-1) > tol {
				t.Errorf("up %v: axis %v not unit length", u, v)
			}
		}
		if math.Abs(r3.Dot(f.Forward, f.Side)) > tol ||
			math.Abs(r3.Dot(f.Forward, f.Up)) > tol ||
			math.Abs(r3.Dot(f.Side, f.Up)) > tol {
			t.Errorf("up %v: frame not orthogonal: %+v", u, f)
		}
	}
}

func TestNewFrameDegenerate(t *testing.T) {
	for _, u := range []r3.Vec{{}, {X: math.NaN()}, {Z: math.Inf(1)}} {
		if _, err := NewFrame(u); !errors.Is(err, ErrInvalidGeometry) {
			t.Errorf("NewFrame(%v) err = %v, want ErrInvalidGeometry", u, err)
		}
	}
}

func TestNormalizeDegrees(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{180, 180},
		{-180, 180},
		{190, -170},
		{-190, 170},
		{360, 0},
		{540, 180},
		{-720, 0},
	}

	for _, tt := range tests {
		if got := NormalizeDegrees(tt.in); math.Abs(got-tt.want) > tol {
			t.Errorf("NormalizeDegrees(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSphericalToCartesianZUp(t *testing.T) {
	f := MustFrame(r3.Vec{Z: 1})

	tests := []struct {
		name string
		s    Spherical
		eye  r3.Vec
	}{
		{"azimuth 0", Spherical{Distance: 100}, r3.Vec{X: 100}},
		{"azimuth 90", Spherical{Distance: 100, Azimuth: 90}, r3.Vec{Y: 100}},
		{"azimuth 180", Spherical{Distance: 100, Azimuth: 180}, r3.Vec{X: -100}},
		{"zenith", Spherical{Distance: 50, Inclination: 90}, r3.Vec{Z: 50}},
		{"nadir", Spherical{Distance: 50, Inclination: -90}, r3.Vec{Z: -50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eye, up := SphericalToCartesian(r3.Vec{}, tt.s, f)
			if !vecNear(eye, tt.eye, 1e-9) {
				t.Errorf("eye = %v, want %v", eye, tt.eye)
			}
			if math.Abs(r3.Norm(up)-1) > tol {
				t.Errorf("up %v not unit length", up)
			}
			if d := r3.Dot(up, r3.Unit(r3.Sub(r3.Vec{}, eye))); math.Abs(d) > 1e-9 {
				t.Errorf("up not orthogonal to view direction: dot = %v", d)
			}
		})
	}
}

func TestSphericalRoundTrip(t *testing.T) {
	frames := []r3.Vec{{Z: 1}, {Y: 1}, {X: 1, Y: 1, Z: 1}}
	target := r3.Vec{X: 3, Y: -7, Z: 11}

	for _, u := range frames {
		f := MustFrame(u)
		for d := 1.0; d <= 1000; d *= 10 {
			for az := -175.0; az <= 180; az += 35 {
				for inc := -85.0; inc <= 85; inc += 17 {
					in := Spherical{Distance: d, Azimuth: az, Inclination: inc}
					eye, _ := SphericalToCartesian(target, in, f)
					out, err := CartesianToSpherical(eye, target, f, 0)
					if err != nil {
						t.Fatalf("up %v %+v: %v", u, in, err)
					}
					if math.Abs(out.Distance-d) > 1e-9*d ||
						!angleNear(out.Azimuth, az, 1e-9) ||
						math.Abs(out.Inclination-inc) > 1e-9 {
						t.Errorf("up %v: %+v round-tripped to %+v", u, in, out)
					}
				}
			}
		}
	}
}

func TestCartesianToSphericalPolePreservesAzimuth(t *testing.T) {
	f := MustFrame(r3.Vec{Z: 1})

	for _, prev := range []float64{-120, 0, 37.5, 180} {
		s, err := CartesianToSpherical(r3.Vec{Z: 10}, r3.Vec{}, f, prev)
		if err != nil {
			t.Fatal(err)
		}
		if s.Azimuth != prev {
			t.Errorf("azimuth = %v, want preserved %v", s.Azimuth, prev)
		}
		if math.Abs(s.Inclination-90) > tol {
			t.Errorf("inclination = %v, want 90", s.Inclination)
		}
	}
}

func TestCartesianToSphericalDegenerate(t *testing.T) {
	f := MustFrame(r3.Vec{Z: 1})
	p := r3.Vec{X: 1, Y: 2, Z: 3}

	if _, err := CartesianToSpherical(p, p, f, 0); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("coincident eye/target err = %v, want ErrInvalidGeometry", err)
	}
	if _, err := CartesianToSpherical(r3.Vec{X: math.NaN()}, p, f, 0); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("NaN eye err = %v, want ErrInvalidGeometry", err)
	}
}

func TestLevelUpAtPoleFollowsAzimuth(t *testing.T) {
	f := MustFrame(r3.Vec{Z: 1})

	// Looking straight down from above, up points away from the previous heading
	up, err := LevelUp(r3.Vec{Z: 10}, r3.Vec{}, f, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !vecNear(up, r3.Vec{X: -1}, 1e-9) {
		t.Errorf("up = %v, want -X", up)
	}

	up, err = LevelUp(r3.Vec{Z: 10}, r3.Vec{}, f, 90)
	if err != nil {
		t.Fatal(err)
	}
	if !vecNear(up, r3.Vec{Y: -1}, 1e-9) {
		t.Errorf("up = %v, want -Y", up)
	}
}

func TestCameraCentricZUp(t *testing.T) {
	f := MustFrame(r3.Vec{Z: 1})
	eye := r3.Vec{X: 5}

	tests := []struct {
		name   string
		c      CameraCentric
		target r3.Vec
	}{
		{"forward", CameraCentric{Dolly: 10}, r3.Vec{X: 15}},
		{"pan 90", CameraCentric{Dolly: 10, Pan: 90}, r3.Vec{X: 5, Y: 10}},
		{"tilt up", CameraCentric{Dolly: 10, Tilt: 90}, r3.Vec{X: 5, Z: 10}},
		{"tilt down", CameraCentric{Dolly: 10, Tilt: -90}, r3.Vec{X: 5, Z: -10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CameraCentricToCartesian(eye, tt.c, f)
			if !vecNear(got, tt.target, 1e-9) {
				t.Errorf("target = %v, want %v", got, tt.target)
			}
		})
	}
}

func TestCameraCentricRoundTrip(t *testing.T) {
	frames := []r3.Vec{{Z: 1}, {Y: 1}, {X: -1, Y: 2, Z: 0.5}}
	eye := r3.Vec{X: -20, Y: 4, Z: 9}

	for _, u := range frames {
		f := MustFrame(u)
		for pan := -170.0; pan <= 180; pan += 40 {
			for tilt := -80.0; tilt <= 80; tilt += 20 {
				in := CameraCentric{Dolly: 42, Pan: pan, Tilt: tilt}
				target := CameraCentricToCartesian(eye, in, f)
				out, err := CartesianToCameraCentric(eye, target, f, 0)
				if err != nil {
					t.Fatalf("up %v %+v: %v", u, in, err)
				}
				if math.Abs(out.Dolly-42) > 1e-9 ||
					!angleNear(out.Pan, pan, 1e-9) ||
					math.Abs(out.Tilt-tilt) > 1e-9 {
					t.Errorf("up %v: %+v round-tripped to %+v", u, in, out)
				}
			}
		}
	}
}

func TestCameraCentricMatchesSpherical(t *testing.T) {
	f := MustFrame(r3.Vec{Y: 1})
	target := r3.Vec{X: 1, Y: 2, Z: 3}
	s := Spherical{Distance: 25, Azimuth: 30, Inclination: 20}

	eye, _ := SphericalToCartesian(target, s, f)
	c, err := CartesianToCameraCentric(eye, target, f, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := s.ToCameraCentric()
	if math.Abs(c.Dolly-want.Dolly) > 1e-9 || !angleNear(c.Pan, want.Pan, 1e-9) || math.Abs(c.Tilt-want.Tilt) > 1e-9 {
		t.Errorf("camera-centric = %+v, want %+v", c, want)
	}
	back := c.ToSpherical()
	if !angleNear(back.Azimuth, s.Azimuth, 1e-9) || math.Abs(back.Inclination-s.Inclination) > 1e-9 {
		t.Errorf("ToSpherical = %+v, want %+v", back, s)
	}
}

func TestCartesianToCameraCentricPolePreservesPan(t *testing.T) {
	f := MustFrame(r3.Vec{Z: 1})

	c, err := CartesianToCameraCentric(r3.Vec{}, r3.Vec{Z: -5}, f, 64)
	if err != nil {
		t.Fatal(err)
	}
	if c.Pan != 64 {
		t.Errorf("pan = %v, want preserved 64", c.Pan)
	}
	if math.Abs(c.Tilt+90) > tol {
		t.Errorf("tilt = %v, want -90", c.Tilt)
	}
}

func TestCanonicalRoundTrip(t *testing.T) {
	for _, u := range []r3.Vec{{Z: 1}, {Y: 1}, {Y: -1}, {X: 1, Z: 1}} {
		c, err := NewCanonical(u)
		if err != nil {
			t.Fatal(err)
		}
		up := c.ToCanonical(r3.Unit(u))
		if !vecNear(up, r3.Vec{Y: 1}, 1e-9) {
			t.Errorf("world-up %v maps to %v, want +Y", u, up)
		}
		p := r3.Vec{X: 3, Y: -4, Z: 5}
		if got := c.FromCanonical(c.ToCanonical(p)); !vecNear(got, p, 1e-9) {
			t.Errorf("world-up %v: %v round-tripped to %v", u, p, got)
		}
	}
}

func TestCorrectedUp(t *testing.T) {
	up, err := CorrectedUp(r3.Vec{X: 1, Z: -1}, r3.Vec{Z: 1})
	if err != nil {
		t.Fatal(err)
	}
	want := r3.Unit(r3.Vec{X: 1, Z: 1})
	if !vecNear(up, want, 1e-9) {
		t.Errorf("up = %v, want %v", up, want)
	}

	if _, err := CorrectedUp(r3.Vec{Z: -3}, r3.Vec{Z: 1}); !errors.Is(err, ErrInvalidGeometry) {
		t.Errorf("parallel up err = %v, want ErrInvalidGeometry", err)
	}
}

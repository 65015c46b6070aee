// Package stress computes vertical stress (σz) beneath uniform surface
// surcharges on an elastic half-space using Boussinesq's point-load solution.
//
// Two footprints are supported, modelled as a closed tagged variant:
//
//   - Rectangular loads are integrated by superposition: the footprint is
//     split into mx × my subelements, each acting as a point load at its
//     centroid.
//   - Circular loads use the exact closed form directly beneath the centre.
//     Elsewhere the kernel is integrated exactly along each ray from the
//     point to the load edge and composite Gauss–Legendre quadrature sums
//     the rays over direction.
//
// Subelement and panel counts come from a single discretization policy
// (see Subdivisions) so that cost stays bounded for fine output grids.
//
// The engine is synchronous and side-effect free: every call runs to
// completion on the calling goroutine and returns the same result for the
// same inputs. Invalid input is rejected with a *ValidationError before any
// work starts.
//
// # Usage
//
//	eng := stress.NewEngine()
//	field, err := eng.ComputeRectangular(100, 2, 3, stress.Grid{
//	    XMin: -3, XMax: 3, YMin: -4, YMax: 4, ZMax: 5,
//	    Nx: 11, Ny: 11, Nz: 6,
//	})
//
//	zs, err := stress.DepthSweep(0.5, 10, 20)
//	profile, err := eng.ComputeCircular(100, 2, 0, 0, zs)
package stress

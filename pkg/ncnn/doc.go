// Package ncnn provides Go bindings to the ncnn neural network inference
// engine through its C API.
//
// The package owns native handles and releases them deterministically,
// converts Go inputs (paths, byte slices, io.Reader streams, option structs)
// into the native calling convention and translates native return codes into
// typed errors. Inference itself runs inside libncnn.
//
// # Building
//
// The native boundary is compiled only with the `ncnn` build tag and cgo
// enabled; libncnn is located with pkg-config:
//
//	go build -tags ncnn ./...
//
// Without the tag a stub boundary is compiled: NewNet fails with
// ErrDependencyUnavailable, keeping default builds and CI CGO-free.
// ParseParam and InspectParam are pure Go and work in every build.
//
// # Usage
//
//	net, err := ncnn.NewNet()
//	if err != nil {
//	    return err
//	}
//	defer net.Close()
//
//	opt := ncnn.DefaultOption()
//	opt.NumThreads = 4
//	net.SetOption(opt)
//
//	if err := net.LoadParam("squeezenet.param"); err != nil {
//	    return err
//	}
//	if err := net.LoadModel("squeezenet.bin"); err != nil {
//	    return err
//	}
//
//	ex, err := net.NewExtractor()
//	if err != nil {
//	    return err
//	}
//	defer ex.Close()
//
//	if err := ex.Input("data", ncnn.NewMat3D(227, 227, 3, pixels)); err != nil {
//	    return err
//	}
//	out, err := ex.Extract("prob")
//
// # Lifetimes and concurrency
//
// An Extractor is bound to the Net it was created from. Closing the Net makes
// every method of its extractors fail with ErrNetClosed; the native net is
// destroyed once the last extractor is closed. A Net may be handed between
// goroutines but is not safe for concurrent use: callers serialize access.
// Native calls cannot be interrupted once started.
package ncnn

package tensor

// Buffer is a device-resident array of float32 elements.
// Buffers are created by, and must only be passed back to, the Backend that allocated them.
type Buffer interface {
	// Len returns the number of elements.
	Len() int

	// Device returns the device the buffer lives on.
	Device() Device
}

// Backend defines the storage and kernel contract every device implements.
//
// Kernels write into a caller-provided dst buffer. All buffers passed to a kernel
// must belong to this backend and have matching lengths (except Sum and Broadcast,
// whose scalar side has one element).
//
// Implementations:
//   - cpu: pure Go host backend (always available)
//   - webgpu: accelerator backend via go-webgpu (asynchronous kernel launches)
type Backend interface {
	// Memory management
	Allocate(n int) (Buffer, error) // uninitialized contents on accelerators, zeros on host
	Free(buf Buffer)

	// Element-wise operations
	Fill(dst Buffer, value float32) error
	Add(dst, a, b Buffer) error
	Sub(dst, a, b Buffer) error
	Mul(dst, a, b Buffer) error
	Div(dst, a, b Buffer) error
	Square(dst, x Buffer) error
	Scale(dst, x Buffer, s float32) error
	AddScaled(dst Buffer, alpha float32, x Buffer) error // dst += alpha * x
	Equal(dst, a, b Buffer, eps float32) error           // 1 where |a-b| < eps, else 0

	// Reductions
	Sum(dst, x Buffer) error         // dst[0] = sum(x)
	Broadcast(dst, src Buffer) error // dst[i] = src[0]

	// Host transfer. Read and Synchronize wait for all queued kernels.
	Read(src Buffer) ([]float32, error)
	Write(dst Buffer, data []float32) error
	Synchronize() error

	// Metadata
	Name() string
	Device() Device
}

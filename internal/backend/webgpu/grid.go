package webgpu

// workgroupSize is the number of invocations per workgroup in every shader.
const workgroupSize = 256

// maxGroupsPerDim is the WebGPU limit on workgroups along one dispatch dimension.
const maxGroupsPerDim = 65535

// grid lays out groups workgroups as an x-by-y dispatch with x <= maxGroupsPerDim.
// Shaders recover the flat element index as gid.x + gid.y*stride, where stride
// is x*workgroupSize.
func grid(groups uint32) (x, y, stride uint32) {
	if groups == 0 {
		return 0, 0, 0
	}
	x = min(groups, maxGroupsPerDim)
	y = (groups + x - 1) / x
	return x, y, x * workgroupSize
}

// groupsFor returns ceil(n / workgroupSize).
func groupsFor(n int) uint32 {
	//nolint:gosec // G115: n is a non-negative element count
	return uint32((n + workgroupSize - 1) / workgroupSize)
}

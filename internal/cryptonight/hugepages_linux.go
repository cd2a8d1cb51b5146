//go:build linux

package cryptonight

import "golang.org/x/sys/unix"

// mapHugePages allocates size bytes backed by huge pages. Fails unless the
// system has huge pages reserved (vm.nr_hugepages).
func mapHugePages(size int) ([]byte, error) {
	return unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANONYMOUS|unix.MAP_HUGETLB|unix.MAP_POPULATE)
}

func unmapPages(b []byte) {
	_ = unix.Munmap(b)
}

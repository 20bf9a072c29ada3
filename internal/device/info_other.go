//go:build !linux && !darwin && !windows

package device

type genericInfo struct{}

func newInfoProvider() InfoProvider {
	return genericInfo{}
}

func (genericInfo) Exists(path string) (bool, error) {
	return statExists(path)
}

// Capacity is not queryable here.
func (genericInfo) Capacity(string) (int64, bool) {
	return 0, false
}

func (genericInfo) MountedPartitions(path string) ([]Mount, error) {
	all, err := psutilMounts()
	if err != nil {
		return nil, err
	}
	return matchMounts(all, path), nil
}

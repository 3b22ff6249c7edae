package step

import (
	"os"
	"time"
)

// DirUpToDate is the "create directory" freshness test: up-to-date iff the
// directory already exists.
func DirUpToDate(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// NewerThanAll is the shared freshness test for compile/archive/link and
// generic run-command steps: up-to-date iff every output exists and is
// newer than every input. Inputs are assumed to already exist (a missing
// input is caught earlier as MissingInput, not folded into this test).
func NewerThanAll(outputs, inputs []string) (bool, error) {
	if len(outputs) == 0 {
		return false, nil
	}
	var oldestOutput time.Time
	for i, out := range outputs {
		info, err := os.Stat(out)
		if err != nil {
			if os.IsNotExist(err) {
				return false, nil
			}
			return false, err
		}
		if i == 0 || info.ModTime().Before(oldestOutput) {
			oldestOutput = info.ModTime()
		}
	}
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return false, err
		}
		if info.ModTime().After(oldestOutput) {
			return false, nil
		}
	}
	return true, nil
}

// SoftlinkUpToDate is the "softlink" freshness test: up-to-date iff the link
// exists and resolves to the expected target.
func SoftlinkUpToDate(link, wantTarget string) (bool, error) {
	actual, err := os.Readlink(link)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return actual == wantTarget, nil
}

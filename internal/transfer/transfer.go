// Package transfer relocates verified files into the destination tree.
package transfer

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

type Action int

const (
	Move Action = iota
	Copy
	Link
)

var ErrUnknownAction = errors.New("unknown transfer action")

var actionNames = map[Action]string{
	Move: "move",
	Copy: "copy",
	Link: "link",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// Names lists the accepted action names in declaration order.
func Names() []string {
	return []string{Move.String(), Copy.String(), Link.String()}
}

func ParseAction(name string) (Action, error) {
	for action, actionName := range actionNames {
		if actionName == name {
			return action, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

func (a Action) MarshalText() ([]byte, error) {
	if _, ok := actionNames[a]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownAction, int(a))
	}
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	action, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = action
	return nil
}

// Relocate applies the action to src, placing the result at dst. The parent
// of dst must already exist.
func (a Action) Relocate(src, dst string) error {
	switch a {
	case Move:
		return moveFile(src, dst)
	case Copy:
		return copyFile(src, dst)
	case Link:
		return linkFile(src, dst)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownAction, int(a))
	}
}

// EnsureParent creates the missing parents of dst with mode.
func EnsureParent(dst string, mode fs.FileMode) error {
	return os.MkdirAll(filepath.Dir(dst), mode)
}

func moveFile(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	if !isCrossDevice(err) {
		return err
	}
	if err := copyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	// O_CREATE only applies the mode to new files.
	return out.Chmod(info.Mode().Perm())
}

func linkFile(src, dst string) error {
	if _, err := os.Lstat(dst); err == nil {
		return nil
	}
	err := os.Symlink(src, dst)
	if errors.Is(err, fs.ErrExist) {
		return nil
	}
	return err
}

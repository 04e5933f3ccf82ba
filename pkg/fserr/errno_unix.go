//go:build unix

package fserr

import (
	"syscall"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/sys/unix"
)

func classifyErrno(err error, e *Error) {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return
	}

	switch errno {
	case unix.EAGAIN, unix.EBUSY, unix.EINTR, unix.ETXTBSY:
		e.Kind, e.Code = KindTransient, CodeFileLocked
	case unix.ETIMEDOUT:
		e.Kind, e.Code = KindTransient, CodeTimeout
	case unix.EROFS:
		e.Kind, e.Code = KindPermissionDenied, CodePermissionDenied
	case unix.ENOSPC, unix.EDQUOT:
		e.Kind, e.Code = KindPermanent, CodeStorageFull
	case unix.ENAMETOOLONG, unix.ENOTDIR, unix.EISDIR, unix.ENOTEMPTY:
		e.Kind, e.Code = KindInvalidOperation, CodePathInvalid
	}
}

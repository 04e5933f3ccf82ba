//go:build windows

package fserr

import (
	"syscall"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/sys/windows"
)

func classifyErrno(err error, e *Error) {
	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return
	}

	switch errno {
	case windows.ERROR_SHARING_VIOLATION, windows.ERROR_LOCK_VIOLATION, windows.ERROR_NOT_READY:
		e.Kind, e.Code = KindTransient, CodeFileLocked
	case windows.ERROR_SEM_TIMEOUT:
		e.Kind, e.Code = KindTransient, CodeTimeout
	case windows.ERROR_WRITE_PROTECT:
		e.Kind, e.Code = KindPermissionDenied, CodePermissionDenied
	case windows.ERROR_DISK_FULL, windows.ERROR_HANDLE_DISK_FULL:
		e.Kind, e.Code = KindPermanent, CodeStorageFull
	case windows.ERROR_INVALID_NAME, windows.ERROR_FILENAME_EXCED_RANGE, windows.ERROR_DIR_NOT_EMPTY:
		e.Kind, e.Code = KindInvalidOperation, CodePathInvalid
	}
}

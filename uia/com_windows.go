//go:build windows

package uia

import (
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

// UI Automation COM identifiers.
var (
	clsidCUIAutomation             = ole.NewGUID("{FF48DBA4-60EF-4201-AA87-54103EEF594E}")
	iidIUIAutomation               = ole.NewGUID("{30CBE57D-D9D0-452A-AB13-7AC5AC4825EE}")
	iidIUIAutomationEventHandler   = ole.NewGUID("{146C3C17-F12E-4E22-8C27-F894B9B79C69}")
	iidIUnknown                    = ole.NewGUID("{00000000-0000-0000-C000-000000000046}")
)

// UI Automation ids used by the facade.
const (
	uiaTextPatternID = 10014

	uiaProcessIDProperty              = 30002
	uiaIsTextPatternAvailableProperty = 30040

	uiaTextSelectionChangedEvent = 20014
	uiaTextChangedEvent          = 20015
	uiaTextEditTextChangedEvent  = 20032

	treeScopeSubtree = 7
)

const (
	hrSOK           = 0
	hrENoInterface  = 0x80004002
)

var (
	oleaut32                  = syscall.NewLazyDLL("oleaut32.dll")
	procSysFreeString         = oleaut32.NewProc("SysFreeString")
	procSafeArrayGetLBound    = oleaut32.NewProc("SafeArrayGetLBound")
	procSafeArrayGetUBound    = oleaut32.NewProc("SafeArrayGetUBound")
	procSafeArrayAccessData   = oleaut32.NewProc("SafeArrayAccessData")
	procSafeArrayUnaccessData = oleaut32.NewProc("SafeArrayUnaccessData")
	procSafeArrayDestroy      = oleaut32.NewProc("SafeArrayDestroy")

	user32                = syscall.NewLazyDLL("user32.dll")
	procPostThreadMessage = user32.NewProc("PostThreadMessageW")
)

// Raw COM interface wrappers. Only the vtable slots the facade reaches are
// named; earlier slots must still be present so the offsets line up with
// UIAutomationClient.h.

type iUIAutomation struct{ ole.IUnknown }

type iUIAutomationVtbl struct {
	ole.IUnknownVtbl
	CompareElements                  uintptr
	CompareRuntimeIds                uintptr
	GetRootElement                   uintptr
	ElementFromHandle                uintptr
	ElementFromPoint                 uintptr
	GetFocusedElement                uintptr
	GetRootElementBuildCache         uintptr
	ElementFromHandleBuildCache      uintptr
	ElementFromPointBuildCache       uintptr
	GetFocusedElementBuildCache      uintptr
	CreateTreeWalker                 uintptr
	GetControlViewWalker             uintptr
	GetContentViewWalker             uintptr
	GetRawViewWalker                 uintptr
	GetRawViewCondition              uintptr
	GetControlViewCondition          uintptr
	GetContentViewCondition         uintptr
	CreateCacheRequest               uintptr
	CreateTrueCondition              uintptr
	CreateFalseCondition             uintptr
	CreatePropertyCondition          uintptr
	CreatePropertyConditionEx        uintptr
	CreateAndCondition               uintptr
	CreateAndConditionFromArray      uintptr
	CreateAndConditionFromNativeArray uintptr
	CreateOrCondition                uintptr
	CreateOrConditionFromArray       uintptr
	CreateOrConditionFromNativeArray uintptr
	CreateNotCondition               uintptr
	AddAutomationEventHandler        uintptr
	RemoveAutomationEventHandler     uintptr
}

func (a *iUIAutomation) vtbl() *iUIAutomationVtbl {
	return (*iUIAutomationVtbl)(unsafe.Pointer(a.RawVTable))
}

func (a *iUIAutomation) getRootElement() (*iUIAutomationElement, error) {
	var el *iUIAutomationElement
	hr, _, _ := syscall.SyscallN(a.vtbl().GetRootElement,
		uintptr(unsafe.Pointer(a)), uintptr(unsafe.Pointer(&el)))
	return el, comError(hr, el == nil)
}

func (a *iUIAutomation) getFocusedElement() (*iUIAutomationElement, error) {
	var el *iUIAutomationElement
	hr, _, _ := syscall.SyscallN(a.vtbl().GetFocusedElement,
		uintptr(unsafe.Pointer(a)), uintptr(unsafe.Pointer(&el)))
	return el, comError(hr, el == nil)
}

func (a *iUIAutomation) elementFromPoint(x, y int32) (*iUIAutomationElement, error) {
	var el *iUIAutomationElement
	// POINT is 8 bytes and passed by value in a single register on amd64.
	pt := uintptr(uint32(x)) | uintptr(uint32(y))<<32
	hr, _, _ := syscall.SyscallN(a.vtbl().ElementFromPoint,
		uintptr(unsafe.Pointer(a)), pt, uintptr(unsafe.Pointer(&el)))
	return el, comError(hr, el == nil)
}

func (a *iUIAutomation) controlViewWalker() (*iUIAutomationTreeWalker, error) {
	var w *iUIAutomationTreeWalker
	hr, _, _ := syscall.SyscallN(a.vtbl().GetControlViewWalker,
		uintptr(unsafe.Pointer(a)), uintptr(unsafe.Pointer(&w)))
	return w, comError(hr, w == nil)
}

func (a *iUIAutomation) addAutomationEventHandler(eventID int32, root *iUIAutomationElement, h *comEventHandler) error {
	hr, _, _ := syscall.SyscallN(a.vtbl().AddAutomationEventHandler,
		uintptr(unsafe.Pointer(a)),
		uintptr(eventID),
		uintptr(unsafe.Pointer(root)),
		uintptr(treeScopeSubtree),
		0, // no cache request
		uintptr(unsafe.Pointer(h)))
	return comError(hr, false)
}

func (a *iUIAutomation) removeAutomationEventHandler(eventID int32, root *iUIAutomationElement, h *comEventHandler) error {
	hr, _, _ := syscall.SyscallN(a.vtbl().RemoveAutomationEventHandler,
		uintptr(unsafe.Pointer(a)),
		uintptr(eventID),
		uintptr(unsafe.Pointer(root)),
		uintptr(unsafe.Pointer(h)))
	return comError(hr, false)
}

type iUIAutomationElement struct{ ole.IUnknown }

type iUIAutomationElementVtbl struct {
	ole.IUnknownVtbl
	SetFocus                  uintptr
	GetRuntimeId              uintptr
	FindFirst                 uintptr
	FindAll                   uintptr
	FindFirstBuildCache       uintptr
	FindAllBuildCache         uintptr
	BuildUpdatedCache         uintptr
	GetCurrentPropertyValue   uintptr
	GetCurrentPropertyValueEx uintptr
	GetCachedPropertyValue    uintptr
	GetCachedPropertyValueEx  uintptr
	GetCurrentPatternAs       uintptr
	GetCachedPatternAs        uintptr
	GetCurrentPattern         uintptr
	GetCachedPattern          uintptr
}

func (e *iUIAutomationElement) vtbl() *iUIAutomationElementVtbl {
	return (*iUIAutomationElementVtbl)(unsafe.Pointer(e.RawVTable))
}

func (e *iUIAutomationElement) currentPropertyValue(propertyID int32, v *ole.VARIANT) error {
	hr, _, _ := syscall.SyscallN(e.vtbl().GetCurrentPropertyValue,
		uintptr(unsafe.Pointer(e)), uintptr(propertyID), uintptr(unsafe.Pointer(v)))
	return comError(hr, false)
}

func (e *iUIAutomationElement) currentPattern(patternID int32) (*iUIAutomationTextPattern, error) {
	var p *iUIAutomationTextPattern
	hr, _, _ := syscall.SyscallN(e.vtbl().GetCurrentPattern,
		uintptr(unsafe.Pointer(e)), uintptr(patternID), uintptr(unsafe.Pointer(&p)))
	return p, comError(hr, p == nil)
}

type iUIAutomationTreeWalker struct{ ole.IUnknown }

type iUIAutomationTreeWalkerVtbl struct {
	ole.IUnknownVtbl
	GetParentElement uintptr
}

func (w *iUIAutomationTreeWalker) vtbl() *iUIAutomationTreeWalkerVtbl {
	return (*iUIAutomationTreeWalkerVtbl)(unsafe.Pointer(w.RawVTable))
}

func (w *iUIAutomationTreeWalker) parentElement(el *iUIAutomationElement) (*iUIAutomationElement, error) {
	var parent *iUIAutomationElement
	hr, _, _ := syscall.SyscallN(w.vtbl().GetParentElement,
		uintptr(unsafe.Pointer(w)), uintptr(unsafe.Pointer(el)), uintptr(unsafe.Pointer(&parent)))
	return parent, comError(hr, parent == nil)
}

type iUIAutomationTextPattern struct{ ole.IUnknown }

type iUIAutomationTextPatternVtbl struct {
	ole.IUnknownVtbl
	RangeFromPoint uintptr
	RangeFromChild uintptr
	GetSelection   uintptr
}

func (p *iUIAutomationTextPattern) vtbl() *iUIAutomationTextPatternVtbl {
	return (*iUIAutomationTextPatternVtbl)(unsafe.Pointer(p.RawVTable))
}

func (p *iUIAutomationTextPattern) selection() (*iUIAutomationTextRangeArray, error) {
	var arr *iUIAutomationTextRangeArray
	hr, _, _ := syscall.SyscallN(p.vtbl().GetSelection,
		uintptr(unsafe.Pointer(p)), uintptr(unsafe.Pointer(&arr)))
	return arr, comError(hr, arr == nil)
}

type iUIAutomationTextRangeArray struct{ ole.IUnknown }

type iUIAutomationTextRangeArrayVtbl struct {
	ole.IUnknownVtbl
	GetLength  uintptr
	GetElement uintptr
}

func (a *iUIAutomationTextRangeArray) vtbl() *iUIAutomationTextRangeArrayVtbl {
	return (*iUIAutomationTextRangeArrayVtbl)(unsafe.Pointer(a.RawVTable))
}

func (a *iUIAutomationTextRangeArray) length() int {
	var n int32
	syscall.SyscallN(a.vtbl().GetLength,
		uintptr(unsafe.Pointer(a)), uintptr(unsafe.Pointer(&n)))
	return int(n)
}

func (a *iUIAutomationTextRangeArray) element(i int) (*iUIAutomationTextRange, error) {
	var r *iUIAutomationTextRange
	hr, _, _ := syscall.SyscallN(a.vtbl().GetElement,
		uintptr(unsafe.Pointer(a)), uintptr(int32(i)), uintptr(unsafe.Pointer(&r)))
	return r, comError(hr, r == nil)
}

type iUIAutomationTextRange struct{ ole.IUnknown }

type iUIAutomationTextRangeVtbl struct {
	ole.IUnknownVtbl
	Clone                 uintptr
	Compare               uintptr
	CompareEndpoints      uintptr
	ExpandToEnclosingUnit uintptr
	FindAttribute         uintptr
	FindText              uintptr
	GetAttributeValue     uintptr
	GetBoundingRectangles uintptr
	GetEnclosingElement   uintptr
	GetText               uintptr
}

func (r *iUIAutomationTextRange) vtbl() *iUIAutomationTextRangeVtbl {
	return (*iUIAutomationTextRangeVtbl)(unsafe.Pointer(r.RawVTable))
}

func (r *iUIAutomationTextRange) text(maxLength int32) (string, error) {
	var bstr *uint16
	hr, _, _ := syscall.SyscallN(r.vtbl().GetText,
		uintptr(unsafe.Pointer(r)), uintptr(maxLength), uintptr(unsafe.Pointer(&bstr)))
	if err := comError(hr, bstr == nil); err != nil {
		return "", err
	}
	s := ole.BstrToString(bstr)
	procSysFreeString.Call(uintptr(unsafe.Pointer(bstr)))
	return s, nil
}

// boundingRects unpacks the SAFEARRAY of doubles that UI Automation returns:
// a flat sequence of (left, top, width, height) tuples.
func (r *iUIAutomationTextRange) boundingRects() ([]Rect, error) {
	var sa uintptr
	hr, _, _ := syscall.SyscallN(r.vtbl().GetBoundingRectangles,
		uintptr(unsafe.Pointer(r)), uintptr(unsafe.Pointer(&sa)))
	if err := comError(hr, sa == 0); err != nil {
		return nil, err
	}
	defer procSafeArrayDestroy.Call(sa)

	var lo, hi int32
	if ret, _, _ := procSafeArrayGetLBound.Call(sa, 1, uintptr(unsafe.Pointer(&lo))); ret != hrSOK {
		return nil, ole.NewError(ret)
	}
	if ret, _, _ := procSafeArrayGetUBound.Call(sa, 1, uintptr(unsafe.Pointer(&hi))); ret != hrSOK {
		return nil, ole.NewError(ret)
	}
	count := int(hi - lo + 1)
	if count < 4 {
		return nil, nil
	}

	var data *float64
	if ret, _, _ := procSafeArrayAccessData.Call(sa, uintptr(unsafe.Pointer(&data))); ret != hrSOK {
		return nil, ole.NewError(ret)
	}
	values := unsafe.Slice(data, count)
	rects := make([]Rect, 0, count/4)
	for i := 0; i+3 < count; i += 4 {
		rects = append(rects, Rect{
			Left:   values[i],
			Top:    values[i+1],
			Width:  values[i+2],
			Height: values[i+3],
		})
	}
	procSafeArrayUnaccessData.Call(sa)
	return rects, nil
}

func comError(hr uintptr, nilOut bool) error {
	if hr != hrSOK {
		return ole.NewError(hr)
	}
	if nilOut {
		return ole.NewError(ole.E_POINTER)
	}
	return nil
}

// comEventHandler is a Go-implemented IUIAutomationEventHandler. A single
// instance receives all three registered event kinds and fans out by id.
type comEventHandler struct {
	vtbl     *comEventHandlerVtbl
	refs     int32
	dispatch func(sender *iUIAutomationElement, eventID int32)
}

type comEventHandlerVtbl struct {
	queryInterface        uintptr
	addRef                uintptr
	release               uintptr
	handleAutomationEvent uintptr
}

var eventHandlerVtbl = comEventHandlerVtbl{
	queryInterface:        syscall.NewCallback(eventHandlerQueryInterface),
	addRef:                syscall.NewCallback(eventHandlerAddRef),
	release:               syscall.NewCallback(eventHandlerRelease),
	handleAutomationEvent: syscall.NewCallback(eventHandlerHandleEvent),
}

func newComEventHandler(dispatch func(sender *iUIAutomationElement, eventID int32)) *comEventHandler {
	return &comEventHandler{vtbl: &eventHandlerVtbl, refs: 1, dispatch: dispatch}
}

func eventHandlerQueryInterface(this *comEventHandler, riid *ole.GUID, out *unsafe.Pointer) uintptr {
	if ole.IsEqualGUID(riid, iidIUnknown) || ole.IsEqualGUID(riid, iidIUIAutomationEventHandler) {
		*out = unsafe.Pointer(this)
		this.refs++
		return hrSOK
	}
	*out = nil
	return hrENoInterface
}

func eventHandlerAddRef(this *comEventHandler) uintptr {
	// The handler lives for the whole subscription and is reclaimed by the
	// Go GC; the count only satisfies the COM contract.
	this.refs++
	return uintptr(this.refs)
}

func eventHandlerRelease(this *comEventHandler) uintptr {
	this.refs--
	if this.refs < 0 {
		this.refs = 0
	}
	return uintptr(this.refs)
}

func eventHandlerHandleEvent(this *comEventHandler, sender *iUIAutomationElement, eventID uintptr) uintptr {
	if this.dispatch != nil {
		this.dispatch(sender, int32(eventID))
	}
	return hrSOK
}

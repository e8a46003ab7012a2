package reflection

import (
	"fmt"
	"reflect"
	"sync"
)

// In marks a struct parameter whose exported fields are injected by name.
type In struct{}

var (
	inType  = reflect.TypeOf((*In)(nil)).Elem()
	errType = reflect.TypeOf((*error)(nil)).Elem()
)

// Analyzer performs reflection-based analysis of provider functions.
// It caches analysis results for performance.
type Analyzer struct {
	mu    sync.RWMutex
	cache map[uintptr]*FuncInfo
}

// FuncInfo contains analyzed information about a provider function.
type FuncInfo struct {
	Type   reflect.Type
	Value  reflect.Value
	Params []Param

	// Result is the type of the first return value
	Result reflect.Type

	IsParamObject      bool // single parameter embedding In
	ParamObjectType    reflect.Type
	ParamObjectPointer bool
	HasErrorReturn     bool // returns error as last value
}

// Param describes a function parameter or a field of an In struct.
type Param struct {
	Type     reflect.Type
	Name     string // field name for In structs, empty for positional parameters
	Index    int    // parameter index or field index
	Optional bool   // from optional:"true" tag
	Key      any    // from name:"key" tag
}

// Positional reports whether the parameter is passed by position.
func (p Param) Positional() bool {
	return p.Name == ""
}

// TagInfo contains parsed struct tag information.
type TagInfo struct {
	Optional bool
	Name     string
	Group    string
	Ignore   bool
}

// New creates a new Analyzer.
func New() *Analyzer {
	return &Analyzer{
		cache: make(map[uintptr]*FuncInfo),
	}
}

// Analyze analyzes a provider function and extracts its parameters and result.
func (a *Analyzer) Analyze(fn any) (*FuncInfo, error) {
	if fn == nil {
		return nil, fmt.Errorf("function cannot be nil")
	}

	val := reflect.ValueOf(fn)
	if val.Kind() != reflect.Func {
		return nil, fmt.Errorf("expected a function, got %T", fn)
	}

	if val.IsNil() {
		return nil, fmt.Errorf("function cannot be nil")
	}

	// Closures share a code pointer, so a cache hit is rebound to val.
	cacheKey := val.Pointer()

	a.mu.RLock()
	if cached, ok := a.cache[cacheKey]; ok && cached.Type == val.Type() {
		a.mu.RUnlock()
		info := *cached
		info.Value = val
		return &info, nil
	}
	a.mu.RUnlock()

	info := &FuncInfo{
		Type:  val.Type(),
		Value: val,
	}

	if info.Type.IsVariadic() {
		return nil, fmt.Errorf("variadic function %v is not supported", info.Type)
	}

	if err := a.analyzeParameters(info); err != nil {
		return nil, fmt.Errorf("failed to analyze parameters: %w", err)
	}

	if err := a.analyzeReturns(info); err != nil {
		return nil, fmt.Errorf("failed to analyze returns: %w", err)
	}

	a.mu.Lock()
	a.cache[cacheKey] = info
	a.mu.Unlock()

	return info, nil
}

// analyzeParameters analyzes function parameters or In struct fields.
func (a *Analyzer) analyzeParameters(info *FuncInfo) error {
	fnType := info.Type

	if fnType.NumIn() == 1 && hasEmbeddedIn(fnType.In(0)) {
		return a.analyzeParamObject(info, fnType.In(0))
	}

	info.Params = make([]Param, fnType.NumIn())
	for i := 0; i < fnType.NumIn(); i++ {
		if hasEmbeddedIn(fnType.In(i)) {
			return fmt.Errorf("parameter object %v must be the only parameter", fnType.In(i))
		}

		info.Params[i] = Param{
			Type:  fnType.In(i),
			Index: i,
		}
	}

	return nil
}

// analyzeParamObject analyzes an In struct's fields.
func (a *Analyzer) analyzeParamObject(info *FuncInfo, paramType reflect.Type) error {
	structType := paramType
	if structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
		info.ParamObjectPointer = true
	}

	info.IsParamObject = true
	info.ParamObjectType = structType

	params := make([]Param, 0, structType.NumField())
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if !field.IsExported() {
			continue
		}

		if field.Anonymous && field.Type == inType {
			continue
		}

		tagInfo := ParseFieldTags(field.Tag)
		if tagInfo.Ignore {
			continue
		}

		if tagInfo.Group != "" {
			return fmt.Errorf("field %s: group tags are not supported", field.Name)
		}

		param := Param{
			Type:     field.Type,
			Name:     field.Name,
			Index:    i,
			Optional: tagInfo.Optional,
		}

		if tagInfo.Name != "" {
			param.Key = tagInfo.Name
		}

		params = append(params, param)
	}

	info.Params = params
	return nil
}

// analyzeReturns accepts T or (T, error).
func (a *Analyzer) analyzeReturns(info *FuncInfo) error {
	fnType := info.Type

	switch fnType.NumOut() {
	case 1:
	case 2:
		if fnType.Out(1) != errType {
			return fmt.Errorf("second return value must be error, got %v", fnType.Out(1))
		}
		info.HasErrorReturn = true
	default:
		return fmt.Errorf("function must return T or (T, error), got %d return values", fnType.NumOut())
	}

	if fnType.Out(0) == errType {
		return fmt.Errorf("function only returns error")
	}

	info.Result = fnType.Out(0)
	return nil
}

// ParseFieldTags parses struct field tags for DI-specific annotations.
func ParseFieldTags(tag reflect.StructTag) TagInfo {
	info := TagInfo{}

	if val, ok := tag.Lookup("optional"); ok {
		info.Optional = val == "true"
	}

	if val, ok := tag.Lookup("name"); ok {
		info.Name = val
	}

	if val, ok := tag.Lookup("group"); ok {
		info.Group = val
	}

	if val, ok := tag.Lookup("inject"); ok && val == "-" {
		info.Ignore = true
	}

	return info
}

// Clear clears the analysis cache.
func (a *Analyzer) Clear() {
	a.mu.Lock()
	a.cache = make(map[uintptr]*FuncInfo)
	a.mu.Unlock()
}

// CacheSize returns the number of cached analyses.
func (a *Analyzer) CacheSize() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.cache)
}

// hasEmbeddedIn checks if a struct (or pointer to struct) embeds In.
func hasEmbeddedIn(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	if t.Kind() != reflect.Struct {
		return false
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Anonymous && field.Type == inType {
			return true
		}
	}

	return false
}

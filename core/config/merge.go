package config

import (
	"reflect"
)

// DeepMerge overlays src onto dst, both pointers to the same struct type.
// Non-zero scalars in src win, maps merge key by key, non-empty slices
// replace and nested structs recurse. Unexported fields are left alone.
func DeepMerge(dst, src any) {
	dstVal := reflect.ValueOf(dst)
	srcVal := reflect.ValueOf(src)

	if dstVal.Kind() != reflect.Ptr || srcVal.Kind() != reflect.Ptr || srcVal.IsNil() {
		return
	}
	if dstVal.Type() != srcVal.Type() {
		return
	}
	mergeValues(dstVal.Elem(), srcVal.Elem())
}

func mergeValues(dst, src reflect.Value) {
	if !dst.CanSet() || !src.IsValid() {
		return
	}

	switch dst.Kind() {
	case reflect.Struct:
		for i := 0; i < dst.NumField(); i++ {
			mergeValues(dst.Field(i), src.Field(i))
		}
	case reflect.Map:
		mergeMap(dst, src)
	case reflect.Slice:
		if src.Len() > 0 {
			dst.Set(src)
		}
	default:
		if !src.IsZero() {
			dst.Set(src)
		}
	}
}

func mergeMap(dst, src reflect.Value) {
	if src.IsNil() {
		return
	}
	if dst.IsNil() {
		dst.Set(reflect.MakeMap(dst.Type()))
	}

	for _, key := range src.MapKeys() {
		srcVal := src.MapIndex(key)
		dstVal := dst.MapIndex(key)

		if !dstVal.IsValid() || (srcVal.Kind() != reflect.Map && srcVal.Kind() != reflect.Struct) {
			dst.SetMapIndex(key, srcVal)
			continue
		}

		merged := reflect.New(dstVal.Type()).Elem()
		merged.Set(dstVal)
		mergeValues(merged, srcVal)
		dst.SetMapIndex(key, merged)
	}
}

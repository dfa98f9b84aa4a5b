package candid

// Unmarshal decodes a message and converts its values to the expected types.
//
// Values are first decoded by their wire types and then coerced: record
// fields are matched by id and take their names from the expected type,
// expected fields of opt, null or reserved type that are missing on the wire
// get their empty value, variant cases are matched by id, and nat is accepted
// where int is expected. Extra wire arguments are ignored and missing trailing
// arguments are only allowed for opt, null or reserved types.
func Unmarshal(data []byte, expected []Type) ([]any, error) {
	msg, err := Decode(data)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(expected))
	for i, want := range expected {
		path := argPath(i)
		if i >= len(msg.Values) {
			v, ok := emptyValue(want)
			if !ok {
				return nil, decodeError(TypeMismatch, -1, path, "missing argument of type %s", want)
			}
			out[i] = v
			continue
		}
		if out[i], err = Coerce(msg.Types[i], want, msg.Values[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Coerce converts v, decoded as wire, to the expected type.
func Coerce(wire, expected Type, v any) (any, error) {
	return coerce(wire, expected, v, "", 0)
}

func coerce(wire, expected Type, v any, path string, depth int) (any, error) {
	if depth > maxDepth {
		return nil, decodeError(InvalidValue, -1, path, "value nested deeper than %d", maxDepth)
	}
	w, e := Resolve(wire), Resolve(expected)
	if w == nil || e == nil {
		return nil, decodeError(TypeMismatch, -1, path, "undefined type")
	}
	if e == Reserved {
		return ReservedValue{}, nil
	}
	switch et := e.(type) {
	case *OptType:
		return coerceOpt(w, et, v, path, depth), nil
	case *PrimType:
		wp, ok := w.(*PrimType)
		if !ok {
			return nil, typeMismatch(w, e, path)
		}
		if wp == et || (et == Int && wp == Nat) {
			return v, nil
		}
		return nil, typeMismatch(w, e, path)
	case *VecType:
		wv, ok := w.(*VecType)
		if !ok {
			return nil, typeMismatch(w, e, path)
		}
		if b, ok := v.([]byte); ok {
			if Resolve(et.Elem) == Nat8 {
				return b, nil
			}
			elems := make([]any, len(b))
			for i, x := range b {
				elems[i] = x
			}
			v = elems
		}
		elems, _ := v.([]any)
		out := make([]any, len(elems))
		for i, x := range elems {
			var err error
			if out[i], err = coerce(wv.Elem, et.Elem, x, indexPath(path, i), depth+1); err != nil {
				return nil, err
			}
		}
		if Resolve(et.Elem) == Nat8 {
			b := make([]byte, len(out))
			for i, x := range out {
				b[i], _ = x.(uint8)
			}
			return b, nil
		}
		return out, nil
	case *RecordType:
		wr, ok := w.(*RecordType)
		if !ok {
			return nil, typeMismatch(w, e, path)
		}
		rec, _ := v.(RecordValue)
		out := RecordValue{Fields: make([]FieldValue, 0, len(et.Fields))}
		for _, ef := range et.Fields {
			fpath := fieldPath(path, ef.Label())
			i, ok := fieldIndex(wr.Fields, ef.ID)
			if !ok {
				x, ok := emptyValue(ef.Type)
				if !ok {
					return nil, decodeError(TypeMismatch, -1, fpath, "missing field")
				}
				out.Fields = append(out.Fields, FieldValue{ID: ef.ID, Name: ef.Name, Value: x})
				continue
			}
			wv, _ := rec.GetID(ef.ID)
			x, err := coerce(wr.Fields[i].Type, ef.Type, wv, fpath, depth+1)
			if err != nil {
				return nil, err
			}
			out.Fields = append(out.Fields, FieldValue{ID: ef.ID, Name: ef.Name, Value: x})
		}
		return out, nil
	case *VariantType:
		wv, ok := w.(*VariantType)
		if !ok {
			return nil, typeMismatch(w, e, path)
		}
		val, _ := v.(VariantValue)
		idx, ok := et.Index(val.ID)
		if !ok {
			return nil, decodeError(UnknownVariantTag, -1, path, "no case with id %d", val.ID)
		}
		widx, ok := wv.Index(val.ID)
		if !ok {
			return nil, decodeError(UnknownVariantTag, -1, path, "no wire case with id %d", val.ID)
		}
		f := et.Fields[idx]
		x, err := coerce(wv.Fields[widx].Type, f.Type, val.Value, fieldPath(path, f.Label()), depth+1)
		if err != nil {
			return nil, err
		}
		return VariantValue{ID: f.ID, Name: f.Name, Value: x}, nil
	case *FuncType:
		if _, ok := w.(*FuncType); !ok {
			return nil, typeMismatch(w, e, path)
		}
		return v, nil
	case *ServiceType:
		if _, ok := w.(*ServiceType); !ok {
			return nil, typeMismatch(w, e, path)
		}
		return v, nil
	}
	return nil, typeMismatch(w, e, path)
}

// coerceOpt never fails: a value that does not fit the expected opt type
// becomes absent.
func coerceOpt(w Type, et *OptType, v any, path string, depth int) OptValue {
	switch wt := w.(type) {
	case *PrimType:
		if wt == Null || wt == Reserved {
			return None()
		}
	case *OptType:
		ov, _ := v.(OptValue)
		if !ov.Present {
			return None()
		}
		x, err := coerce(wt.Elem, et.Elem, ov.Value, path, depth+1)
		if err != nil {
			return None()
		}
		return Some(x)
	}
	// a bare value fits opt T when T itself is not null, opt or reserved
	if optional(et.Elem) {
		return None()
	}
	x, err := coerce(w, et.Elem, v, path, depth+1)
	if err != nil {
		return None()
	}
	return Some(x)
}

func emptyValue(t Type) (any, bool) {
	switch rt := Resolve(t).(type) {
	case *OptType:
		return None(), true
	case *PrimType:
		switch rt {
		case Null:
			return NullValue{}, true
		case Reserved:
			return ReservedValue{}, true
		}
	}
	return nil, false
}

func typeMismatch(wire, expected Type, path string) *Error {
	return decodeError(TypeMismatch, -1, path, "wire type %s does not fit %s", wire, expected)
}

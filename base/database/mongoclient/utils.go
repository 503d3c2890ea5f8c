package mongoclient

import (
	"errors"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsoncodec"
)

var ErrNotStruct = errors.New("bson.M source must be a struct")

// MakeBsonM turns a struct into a filter or $set document keyed by bson tags.
// Zero fields are dropped. Non-nil pointers are dereferenced, so a pointer to a
// zero value is kept, which is how patches clear a field.
func MakeBsonM(src interface{}) (bson.M, error) {
	val := reflect.Indirect(reflect.ValueOf(src))
	if val.Kind() != reflect.Struct {
		return nil, ErrNotStruct
	}

	res := bson.M{}
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		tag, err := bsoncodec.DefaultStructTagParser(val.Type().Field(i))
		if err != nil {
			return nil, err
		}
		if tag.Skip || !field.CanInterface() || field.IsZero() {
			continue
		}
		if field.Kind() == reflect.Ptr {
			res[tag.Name] = field.Elem().Interface()
			continue
		}
		res[tag.Name] = field.Interface()
	}
	return res, nil
}

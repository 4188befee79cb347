package otp

import "context"

// Store holds the current record, or absence thereof, per phone number.
// Get returns (nil, nil) when no record exists. Set overwrites any
// prior record for the number.
type Store interface {
	Get(ctx context.Context, phoneNo string) (*Record, error)
	Set(ctx context.Context, phoneNo string, rec *Record) error
	Delete(ctx context.Context, phoneNo string) error
}

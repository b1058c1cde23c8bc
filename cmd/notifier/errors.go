package main

import "errors"

var errSharedStoreRequired = errors.New("notifier: STORE_DRIVER must be postgres or mongo")

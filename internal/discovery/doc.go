// Package discovery populates the device registry from the controller.
//
// A pass asks for the device count, then requests every device object
// concurrently and inserts each parsed response as it arrives. The whole
// pass shares one time budget. Missing or unparseable objects leave the
// pass Ready with fewer devices than advertised; only a missing count
// response fails it.
//
// Usage:
//
//	wf := discovery.New(registry, conn, responses, 10*time.Second, logger)
//	res, err := wf.Run(ctx)
//	if err != nil {
//	    return err
//	}
//	logger.Info("discovered", "advertised", res.Advertised, "inserted", res.Inserted)
package discovery

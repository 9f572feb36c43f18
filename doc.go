// Package kohonen turns uploaded images into feature vectors and trains
// self-organizing maps (Kohonen networks) over them.
//
// # Quick Start
//
//	ctx := context.Background()
//	broker := notify.NewBroker[training.Event]()
//	svc := kohonen.New(blobstore.NewMemoryStore(), kohonen.WithSink(broker))
//
//	img, _ := svc.UploadImage(ctx, "a.png", pngBytes)
//	_, _ = svc.ProcessImages(ctx)
//	cfg, _ := svc.CreateConfig(ctx, kohonen.Config{Neurons: 100, Iterations: 50})
//
//	sub, _ := broker.Subscribe("training", 128)
//	run, _ := svc.StartTraining(ctx, cfg.ID)
//	for ev := range sub.C() {
//	    fmt.Println(ev.Type, ev.RunID)
//	    if ev.Type == training.EventFinal {
//	        break
//	    }
//	}
//	res, err := run.Result()
//
// # Pipeline
//
// Every image is resized to 128x128, binarized at 0.5 (ink becomes 1) and
// cropped to its ink bounding box. The cropped matrices of one batch are
// right-padded to the widest one, summed per column and normalized so each
// vector peaks at 1.0. ProcessImages replaces all stored vectors only when the
// whole batch succeeds.
//
// # Training
//
// Train loads a configuration and the stored vectors, waits for a free run
// slot and runs the map to completion. Progress, stop and final events are
// published to the configured training.Sink on the "training" topic; every
// event carries the id of its run so concurrent runs can be told apart.
// The configuration's CompetitionType selects the neighborhood function:
// "soft" (default, Gaussian), "bubble", or "hard" (winner only).
//
// # Storage
//
// Records and image bytes live in a blobstore.BlobStore: in memory, on the
// local filesystem, in S3 or in MinIO. Configurations can be moved to
// DynamoDB with WithConfigRepository.
package kohonen

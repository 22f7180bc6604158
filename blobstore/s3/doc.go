// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("streetsearch/"),
//	    s3.WithRegion("us-east-1"),
//	)
//
//	eng, err := streetsearch.New(store)
//
// # Features
//
//   - Whole-object downloads through the transfer manager (parallel parts for large blobs)
//   - Range reads for partial fetches
//   - Automatic pagination for listing
//   - Configurable prefix to host several datasets in one bucket
package s3

/*
Package media is the binary media store: durable, origin-scoped storage of
wallpaper images and videos keyed by string.

Images arrive already compressed to a data URL and are stored zstd-compressed;
videos are stored as raw blobs. Every failure (quota, contention, corrupt
rows) is returned as a failure.KindStorage error so callers can refuse to
record history for media that never persisted.

	store, err := media.NewSQLiteStore(db, logger)
	err = store.Put(ctx, "wallpaper_01H...", &media.Payload{DataURL: url, Type: "image/jpeg"})
	p, err := store.Get(ctx, "wallpaper_01H...") // nil, nil when absent
*/
package media

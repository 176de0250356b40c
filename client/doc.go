// Package client ties the pieces together: it loads or creates the client
// key, restores the persisted context, brings it to live and exposes signed
// calls on top of it.
//
//	c, err := client.New(ctx, client.Options{
//	    BaseURL: config.SandboxBaseURL,
//	    APIKey:  os.Getenv("BUNQ_API_KEY"),
//	    Store:   session.NewFileStore("bunq-context.json"),
//	})
//	user, err := c.User(ctx)
package client

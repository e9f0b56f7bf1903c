//
// lrclient is a client that interacts with a lorepo server.
//

// Create client
//
//	client, err := lrclient.NewDefaultClient("http://localhost:5050")
//	if err != nil {
//		log.Fatal(err)
//	}
//	client.SetBearerToken("my-secret-token")
//
// Register an item
//
//	desc := "Chief maid of the Scarlet Devil Mansion"
//	item, err := client.Create(lrclient.Params{
//		Name: "sakuya",
//		Desc: &desc,
//		File: "https://files.catbox.moe/sakuya.zip",
//		Tags: []string{"touhou", "maid"},
//		Deps: []any{"remilia"},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
// List items
//
//	items, err := client.List(lrclient.Filter{Tags: []string{"touhou"}})
//	if err != nil {
//		log.Fatal(err)
//	}
//
// Partially update an item, only the given fields are changed
//
//	item, err = client.Update("sakuya", lrclient.Patch{"tags": []string{"touhou"}, "image": nil})
//	if err != nil {
//		log.Fatal(err)
//	}
package lrclient
